package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/gds"
	"github.com/Domenick1991/alphatravel/internal/kafka"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/Domenick1991/alphatravel/internal/repository"
	"github.com/Domenick1991/alphatravel/internal/ticket"
)

const referenceAttempts = 3

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.FlightBooking, error)
	Get(ctx context.Context, reference string) (*domain.FlightBooking, error)
	Cancel(ctx context.Context, reference string) (*domain.FlightBooking, error)
	ExpirePending(ctx context.Context) ([]domain.FlightBooking, error)
	Ticket(ctx context.Context, reference string) ([]byte, error)
}

// Offers swaps a client-held offer for the server's stored copy and reports
// whether a pricing call confirmed it.
type Offers interface {
	Resolve(ctx context.Context, submitted domain.FlightOffer) (*domain.FlightOffer, bool, error)
}

type Cache interface {
	AcquireBookingLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, key string) error
}

// Orderer places the order with the airline system.
type Orderer interface {
	CreateOrder(ctx context.Context, offer domain.FlightOffer, passengers []domain.Passenger, contact domain.Contact) (gds.OrderResult, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookInput struct {
	Offer       domain.FlightOffer `json:"flightOffer"`
	Passengers  []domain.Passenger `json:"passengers"`
	Contact     domain.Contact     `json:"contacts"`
	Destination string             `json:"destination"`
}

type BookingService struct {
	bookings           repository.BookingRepository
	offers             Offers
	orderer            Orderer
	cache              Cache
	producer           Producer
	converter          money.Converter
	policy             money.Policy
	referencePrefix    string
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	confirmationTTL    time.Duration
	log                logger.ILogger
	now                func() time.Time
	newReference       func(prefix string) (string, error)
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithReferencePrefix(prefix string) BookingServiceOption {
	return func(s *BookingService) {
		s.referencePrefix = prefix
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithReferenceGenerator(gen func(prefix string) (string, error)) BookingServiceOption {
	return func(s *BookingService) {
		s.newReference = gen
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	offers Offers,
	orderer Orderer,
	cache Cache,
	producer Producer,
	converter money.Converter,
	policy money.Policy,
	bookingTopic string,
	lockTTL, confirmationTTL time.Duration,
	log logger.ILogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		offers:          offers,
		orderer:         orderer,
		cache:           cache,
		producer:        producer,
		converter:       converter,
		policy:          policy,
		referencePrefix: "ALPHA",
		bookingTopic:    bookingTopic,
		lockTTL:         lockTTL,
		confirmationTTL: confirmationTTL,
		log:             log,
		now:             time.Now,
		newReference:    NewReference,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.FlightBooking, error) {
	if input.Offer.ID == "" {
		return nil, domain.Invalid("flightOffer.id", "is required")
	}
	input.Contact.Email = strings.TrimSpace(strings.ToLower(input.Contact.Email))
	if err := ValidateTravellers(input.Passengers, input.Contact, s.now()); err != nil {
		return nil, err
	}

	if s.offers == nil {
		return nil, fmt.Errorf("book offer %s: no offer store configured", input.Offer.ID)
	}
	// price, verification and the GDS payload all come from the stored copy
	offer, verified, err := s.offers.Resolve(ctx, input.Offer)
	if err != nil {
		return nil, err
	}

	base, err := s.converter.OfferTotal(offer.Price)
	if err != nil {
		return nil, domain.Invalid("flightOffer.price", err.Error())
	}
	pricing := money.Checkout(base, s.policy)

	lockKey := offer.ID + ":" + input.Contact.Email
	if s.cache != nil {
		ok, err := s.cache.AcquireBookingLock(ctx, lockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire booking lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("booking for offer %s already in progress: %w", offer.ID, domain.ErrLocked)
		}
		defer func() {
			if err := s.cache.ReleaseBookingLock(context.WithoutCancel(ctx), lockKey); err != nil {
				s.log.Warning("release booking lock failed", logger.String("key", lockKey), logger.Error(err))
			}
		}()
	}

	destination := input.Destination
	if destination == "" {
		_, destination = offer.Route()
	}

	booking := &domain.FlightBooking{
		Status:      domain.BookingStatusPending,
		Verified:    verified,
		Offer:       *offer,
		Passengers:  input.Passengers,
		Contact:     input.Contact,
		Destination: destination,
		Pricing:     pricing,
	}

	if offer.Source != domain.OfferSourceFallback && s.orderer != nil {
		res, err := s.orderer.CreateOrder(ctx, *offer, input.Passengers, input.Contact)
		switch {
		case err == nil:
			booking.Status = domain.BookingStatusConfirmed
			booking.PNR = res.PNR
			booking.GDSOrderID = res.OrderID
		case errors.Is(err, context.Canceled):
			return nil, err
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			s.log.Warning("gds order failed, holding booking as pending", logger.String("offer", offer.ID), logger.Error(err))
		default:
			var apiErr *gds.APIError
			if errors.As(err, &apiErr) && apiErr.Status != http.StatusUnauthorized && apiErr.Status != http.StatusForbidden {
				// the airline rejected the passengers or the offer
				return nil, domain.Invalid("flightOffer", apiErr.Detail)
			}
			s.log.Warning("gds order failed, holding booking as pending", logger.String("offer", offer.ID), logger.Error(err))
		}
	}
	if booking.Status == domain.BookingStatusPending {
		booking.ExpiresAt = s.now().Add(s.confirmationTTL)
	}

	if err := s.persist(ctx, booking); err != nil {
		return nil, err
	}

	s.log.Info("flight booking created",
		logger.String("reference", booking.Reference),
		logger.String("status", string(booking.Status)),
		logger.Bool("has_pnr", booking.PNR != ""),
	)
	if err := s.publish(ctx, kafka.EventFlightBookingCreated, booking); err != nil {
		s.log.Warning("publish booking event failed", logger.String("reference", booking.Reference), logger.Error(err))
	}
	return booking, nil
}

// persist inserts the booking under a fresh reference, regenerating it on collision.
func (s *BookingService) persist(ctx context.Context, booking *domain.FlightBooking) error {
	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		booking.Reference, err = s.newReference(s.referencePrefix)
		if err != nil {
			return err
		}
		err = s.bookings.Create(ctx, booking)
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		s.log.Warning("booking reference collision", logger.String("reference", booking.Reference), logger.Int("attempt", attempt+1))
	}
	return err
}

func (s *BookingService) Get(ctx context.Context, reference string) (*domain.FlightBooking, error) {
	return s.bookings.GetByReference(ctx, normalizeReference(reference))
}

func (s *BookingService) Cancel(ctx context.Context, reference string) (*domain.FlightBooking, error) {
	reference = normalizeReference(reference)
	current, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled || current.Status == domain.BookingStatusExpired {
		return current, nil
	}

	updated, err := s.bookings.UpdateStatus(ctx, reference, domain.BookingStatusCancelled)
	if err != nil {
		return nil, err
	}
	if err := s.publish(ctx, kafka.EventFlightBookingCancelled, updated); err != nil {
		s.log.Warning("publish booking event failed", logger.String("reference", updated.Reference), logger.Error(err))
	}
	return updated, nil
}

func (s *BookingService) ExpirePending(ctx context.Context) ([]domain.FlightBooking, error) {
	expired, err := s.bookings.ExpirePendingBefore(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for i := range expired {
		if err := s.publish(ctx, kafka.EventFlightBookingExpired, &expired[i]); err != nil {
			s.log.Warning("publish booking event failed", logger.String("reference", expired[i].Reference), logger.Error(err))
		}
	}
	if len(expired) > 0 {
		s.log.Info("expired pending bookings", logger.Int("count", len(expired)))
	}
	return expired, nil
}

func (s *BookingService) Ticket(ctx context.Context, reference string) ([]byte, error) {
	b, err := s.bookings.GetByReference(ctx, normalizeReference(reference))
	if err != nil {
		return nil, err
	}
	if b.Status == domain.BookingStatusCancelled || b.Status == domain.BookingStatusExpired {
		return nil, fmt.Errorf("booking %s is %s: %w", b.Reference, strings.ToLower(string(b.Status)), domain.ErrInvalidTransition)
	}
	return ticket.Render(b)
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.FlightBooking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		Reference:   b.Reference,
		PNR:         b.PNR,
		Status:      string(b.Status),
		Email:       b.Contact.Email,
		Destination: b.Destination,
		Total:       b.Pricing.Total,
		Currency:    b.Pricing.Currency,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.Reference, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		n := kafka.Notification{
			Kind:      eventType,
			Email:     b.Contact.Email,
			Reference: b.Reference,
			Status:    string(b.Status),
			Summary:   summary(b),
		}
		return s.producer.Publish(ctx, s.notificationsTopic, b.Reference, n)
	}
	return nil
}

func summary(b *domain.FlightBooking) string {
	from, to := b.Offer.Route()
	return fmt.Sprintf("%s-%s, %d passenger(s), %s", from, to, len(b.Passengers), money.Format(b.Pricing.Total, b.Pricing.Currency))
}

func normalizeReference(reference string) string {
	return strings.ToUpper(strings.TrimSpace(reference))
}

var _ BookingUseCase = (*BookingService)(nil)
var _ Orderer = (*gds.Client)(nil)
