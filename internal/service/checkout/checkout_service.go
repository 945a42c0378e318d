package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/service/booking"
	"github.com/google/uuid"
)

type CheckoutUseCase interface {
	Start(ctx context.Context, input StartInput) (*domain.CheckoutSession, error)
	Get(ctx context.Context, id string) (*domain.CheckoutSession, error)
	SetTravellers(ctx context.Context, id string, passengers []domain.Passenger, contact domain.Contact) (*domain.CheckoutSession, error)
	Complete(ctx context.Context, id string) (*domain.CheckoutSession, error)
}

type Store interface {
	SaveSession(ctx context.Context, session *domain.CheckoutSession, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*domain.CheckoutSession, error)
}

// Offers resolves submitted offers to the stored copy and prices them.
type Offers interface {
	Resolve(ctx context.Context, submitted domain.FlightOffer) (*domain.FlightOffer, bool, error)
	Quote(offer domain.FlightOffer) (domain.Breakdown, error)
}

type Booker interface {
	Book(ctx context.Context, input booking.BookInput) (*domain.FlightBooking, error)
}

// StartInput carries either an OfferID from a previous search or the full
// offer. Either way the session holds the stored copy of the offer.
type StartInput struct {
	OfferID     string              `json:"offerId,omitempty"`
	Offer       *domain.FlightOffer `json:"flightOffer,omitempty"`
	Destination string              `json:"destination"`
}

type CheckoutService struct {
	store  Store
	offers Offers
	booker Booker
	ttl    time.Duration
	log    logger.ILogger
	now    func() time.Time
}

func NewCheckoutService(store Store, offers Offers, booker Booker, ttl time.Duration, log logger.ILogger) *CheckoutService {
	return &CheckoutService{
		store:  store,
		offers: offers,
		booker: booker,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

func (s *CheckoutService) Start(ctx context.Context, input StartInput) (*domain.CheckoutSession, error) {
	submitted := domain.FlightOffer{ID: input.OfferID}
	if input.Offer != nil && input.Offer.ID != "" {
		submitted = *input.Offer
	}
	if submitted.ID == "" {
		return nil, domain.Invalid("offerId", "offerId or flightOffer is required")
	}

	offer, verified, err := s.offers.Resolve(ctx, submitted)
	if err != nil {
		return nil, err
	}
	pricing, err := s.offers.Quote(*offer)
	if err != nil {
		return nil, err
	}

	destination := strings.TrimSpace(input.Destination)
	if destination == "" {
		_, destination = offer.Route()
	}

	now := s.now().UTC()
	session := &domain.CheckoutSession{
		ID:          uuid.NewString(),
		Stage:       domain.StageSelect,
		Offer:       *offer,
		Verified:    verified,
		Destination: destination,
		Pricing:     pricing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveSession(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("save checkout session: %w", err)
	}
	return session, nil
}

func (s *CheckoutService) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.NotFoundError{Resource: "checkout session"}
	}
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.NotFoundError{Resource: "checkout session"}
	}
	return session, nil
}

func (s *CheckoutService) SetTravellers(ctx context.Context, id string, passengers []domain.Passenger, contact domain.Contact) (*domain.CheckoutSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Stage.Before(domain.StageConfirm) {
		return nil, stageError(session.Stage, domain.StageCheckout)
	}

	contact.Email = strings.TrimSpace(strings.ToLower(contact.Email))
	if err := booking.ValidateTravellers(passengers, contact, s.now()); err != nil {
		return nil, err
	}

	session.Passengers = passengers
	session.Contact = &contact
	session.Stage = domain.StageCheckout
	session.UpdatedAt = s.now().UTC()
	if err := s.store.SaveSession(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("save checkout session: %w", err)
	}
	return session, nil
}

// Complete books the session's offer. A session that is already confirmed
// returns its stored reference without booking again.
func (s *CheckoutService) Complete(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Stage == domain.StageConfirm {
		return session, nil
	}
	if session.Stage != domain.StageCheckout || session.Contact == nil {
		return nil, stageError(session.Stage, domain.StageConfirm)
	}

	b, err := s.booker.Book(ctx, booking.BookInput{
		Offer:       session.Offer,
		Passengers:  session.Passengers,
		Contact:     *session.Contact,
		Destination: session.Destination,
	})
	if err != nil {
		return nil, err
	}

	session.Stage = domain.StageConfirm
	session.Reference = b.Reference
	session.PNR = b.PNR
	session.Verified = b.Verified
	session.Pricing = b.Pricing
	session.UpdatedAt = s.now().UTC()
	if err := s.store.SaveSession(ctx, session, s.ttl); err != nil {
		s.log.Error("save confirmed checkout session failed", logger.String("session", session.ID), logger.String("reference", b.Reference), logger.Error(err))
	}
	return session, nil
}

func stageError(current, target domain.CheckoutStage) error {
	return fmt.Errorf("checkout session in stage %s cannot move to %s: %w", current, target, domain.ErrInvalidTransition)
}

var _ CheckoutUseCase = (*CheckoutService)(nil)
