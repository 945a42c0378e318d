package flights

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/gds"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/google/uuid"
)

const (
	maxTravellers = 9
	defaultMax    = 20
	maxResults    = 250
)

var iataCode = regexp.MustCompile(`^[A-Z]{3}$`)

type FlightUseCase interface {
	Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error)
	Price(ctx context.Context, offer domain.FlightOffer) (*PricedOffer, error)
	GetOffer(ctx context.Context, id string) (*domain.FlightOffer, error)
	Resolve(ctx context.Context, submitted domain.FlightOffer) (*domain.FlightOffer, bool, error)
	Quote(offer domain.FlightOffer) (domain.Breakdown, error)
}

// Upstream is the subset of the GDS client used here.
type Upstream interface {
	SearchOffers(ctx context.Context, q domain.SearchQuery) ([]domain.FlightOffer, error)
	PriceOffer(ctx context.Context, offer domain.FlightOffer) (domain.FlightOffer, error)
}

type Cache interface {
	GetSearch(ctx context.Context, key string) (*domain.SearchResult, error)
	SetSearch(ctx context.Context, key string, result domain.SearchResult) error
	SaveOffers(ctx context.Context, offers []domain.FlightOffer) error
	SaveVerifiedOffer(ctx context.Context, offer domain.FlightOffer) error
	GetOffer(ctx context.Context, id string) (*domain.FlightOffer, error)
	IsVerified(ctx context.Context, id string) (bool, error)
}

// PricedOffer is the result of the price-confirmation step.
type PricedOffer struct {
	Offer    domain.FlightOffer `json:"flightOffer"`
	Verified bool               `json:"verified"`
	Pricing  domain.Breakdown   `json:"pricing"`
	Display  Display            `json:"display"`
}

type Display struct {
	Base       string `json:"base"`
	Tax        string `json:"tax"`
	ServiceFee string `json:"serviceFee"`
	Total      string `json:"total"`
}

type FlightService struct {
	upstream        Upstream
	cache           Cache
	converter       money.Converter
	policy          money.Policy
	fallbackEnabled bool
	log             logger.ILogger
	now             func() time.Time
	newID           func() string
}

type Option func(*FlightService)

func WithFallback(enabled bool) Option {
	return func(s *FlightService) {
		s.fallbackEnabled = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *FlightService) {
		s.now = now
	}
}

func WithOfferIDs(newID func() string) Option {
	return func(s *FlightService) {
		s.newID = newID
	}
}

func NewFlightService(upstream Upstream, cache Cache, converter money.Converter, policy money.Policy, log logger.ILogger, opts ...Option) *FlightService {
	s := &FlightService{
		upstream:  upstream,
		cache:     cache,
		converter: converter,
		policy:    policy,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) Search(ctx context.Context, q domain.SearchQuery) (*domain.SearchResult, error) {
	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}

	key := cacheKey(q)
	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, key); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.Warning("search cache read failed", logger.Error(err))
		}
	}

	offers, err := s.upstream.SearchOffers(ctx, q)
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		return nil, err
	case err != nil && !s.fallbackEnabled:
		return nil, fmt.Errorf("search flights: %w", err)
	case err != nil:
		s.log.Warning("flight search failed, serving fallback offers", logger.Error(err), logger.String("route", q.Origin+"-"+q.Destination))
		return s.fallback(ctx, q), nil
	case len(offers) == 0 && s.fallbackEnabled:
		s.log.Info("flight search empty, serving fallback offers", logger.String("route", q.Origin+"-"+q.Destination))
		return s.fallback(ctx, q), nil
	}

	offers = s.assignIDs(offers)
	result := domain.SearchResult{Offers: offers, Source: domain.OfferSourceLive, Currency: s.policy.Currency}
	if s.cache != nil && len(offers) > 0 {
		s.storeOffers(ctx, offers)
		if err := s.cache.SetSearch(ctx, key, result); err != nil {
			s.log.Warning("search cache write failed", logger.Error(err))
		}
	}
	return &result, nil
}

// Price confirms an offer upstream, starting from the stored copy when there
// is one. Failures fall back to the offer with Verified=false; fallback
// offers are never sent upstream.
func (s *FlightService) Price(ctx context.Context, offer domain.FlightOffer) (*PricedOffer, error) {
	if offer.ID == "" {
		return nil, domain.Invalid("flightOffer.id", "is required")
	}
	if stored := s.storedOffer(ctx, offer.ID); stored != nil {
		offer = *stored
	}

	priced := offer
	verified := false
	if offer.Source != domain.OfferSourceFallback {
		confirmed, err := s.upstream.PriceOffer(ctx, offer)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			s.log.Warning("price confirmation failed, using unverified offer", logger.String("offer", offer.ID), logger.Error(err))
		} else {
			priced = confirmed
			priced.ID = offer.ID
			priced.Source = domain.OfferSourceLive
			verified = true
		}
	}

	breakdown, err := s.Quote(priced)
	if err != nil {
		return nil, err
	}
	if verified && s.cache != nil {
		if err := s.cache.SaveVerifiedOffer(ctx, priced); err != nil {
			s.log.Warning("offer store write failed", logger.String("offer", priced.ID), logger.Error(err))
		}
	}

	return &PricedOffer{
		Offer:    priced,
		Verified: verified,
		Pricing:  breakdown,
		Display:  DisplayOf(breakdown),
	}, nil
}

// Quote converts the offer price to the checkout currency and applies the fee schedule.
func (s *FlightService) Quote(offer domain.FlightOffer) (domain.Breakdown, error) {
	base, err := s.converter.OfferTotal(offer.Price)
	if err != nil {
		return domain.Breakdown{}, domain.Invalid("flightOffer.price", err.Error())
	}
	return money.Checkout(base, s.policy), nil
}

func (s *FlightService) GetOffer(ctx context.Context, id string) (*domain.FlightOffer, error) {
	if s.cache == nil {
		return nil, domain.NotFoundError{Resource: "offer"}
	}
	offer, err := s.cache.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, domain.NotFoundError{Resource: "offer"}
	}
	return offer, nil
}

// Resolve swaps a client-held offer for the stored copy. A submitted price
// that differs from the stored one is rejected. The flag reports whether a
// pricing call confirmed the stored offer.
func (s *FlightService) Resolve(ctx context.Context, submitted domain.FlightOffer) (*domain.FlightOffer, bool, error) {
	if submitted.ID == "" {
		return nil, false, domain.Invalid("flightOffer.id", "is required")
	}
	stored, err := s.GetOffer(ctx, submitted.ID)
	if err != nil {
		return nil, false, err
	}
	if submitted.Price.Total != "" && !samePrice(submitted.Price, stored.Price) {
		s.log.Warning("submitted offer price differs from stored offer",
			logger.String("offer", stored.ID),
			logger.String("submitted", submitted.Price.Total+" "+submitted.Price.Currency),
			logger.String("stored", stored.Price.Total+" "+stored.Price.Currency),
		)
		return nil, false, domain.Invalid("flightOffer.price", "does not match the current offer price, price the offer again")
	}
	if stored.Source != domain.OfferSourceLive {
		return stored, false, nil
	}
	verified, err := s.cache.IsVerified(ctx, stored.ID)
	if err != nil {
		return nil, false, fmt.Errorf("read offer verification: %w", err)
	}
	return stored, verified, nil
}

func samePrice(a, b domain.Price) bool {
	if !strings.EqualFold(strings.TrimSpace(a.Currency), strings.TrimSpace(b.Currency)) {
		return false
	}
	exp, err := money.Exponent(b.Currency)
	if err != nil {
		return false
	}
	x, errA := money.ParseMinor(a.Total, exp)
	y, errB := money.ParseMinor(b.Total, exp)
	return errA == nil && errB == nil && x == y
}

func (s *FlightService) storedOffer(ctx context.Context, id string) *domain.FlightOffer {
	if s.cache == nil {
		return nil
	}
	offer, err := s.cache.GetOffer(ctx, id)
	if err != nil {
		s.log.Warning("offer store read failed", logger.String("offer", id), logger.Error(err))
		return nil
	}
	return offer
}

func (s *FlightService) storeOffers(ctx context.Context, offers []domain.FlightOffer) {
	if err := s.cache.SaveOffers(ctx, offers); err != nil {
		s.log.Warning("offer store write failed", logger.Error(err))
	}
}

// assignIDs gives every offer a store-wide id. Upstream ids only number the
// offers of one response; the upstream payload keeps its own.
func (s *FlightService) assignIDs(offers []domain.FlightOffer) []domain.FlightOffer {
	out := make([]domain.FlightOffer, len(offers))
	for i, offer := range offers {
		offer.ID = s.newID()
		out[i] = offer
	}
	return out
}

func DisplayOf(b domain.Breakdown) Display {
	return Display{
		Base:       money.Format(b.Base, b.Currency),
		Tax:        money.Format(b.Tax, b.Currency),
		ServiceFee: money.Format(b.ServiceFee, b.Currency),
		Total:      money.Format(b.Total, b.Currency),
	}
}

// fallback results go to the offer store so they can be booked, but the
// search itself is never cached.
func (s *FlightService) fallback(ctx context.Context, q domain.SearchQuery) *domain.SearchResult {
	offers := s.assignIDs(gds.Fallback(q))
	if s.cache != nil {
		s.storeOffers(ctx, offers)
	}
	return &domain.SearchResult{
		Offers:   offers,
		Source:   domain.OfferSourceFallback,
		Currency: s.policy.Currency,
	}
}

func (s *FlightService) normalize(q domain.SearchQuery) (domain.SearchQuery, error) {
	q.Origin = strings.ToUpper(strings.TrimSpace(q.Origin))
	q.Destination = strings.ToUpper(strings.TrimSpace(q.Destination))
	q.TravelClass = strings.ToUpper(strings.TrimSpace(q.TravelClass))
	q.Currency = strings.ToUpper(strings.TrimSpace(q.Currency))

	if !iataCode.MatchString(q.Origin) {
		return q, domain.Invalid("origin", "must be a 3-letter IATA code")
	}
	if !iataCode.MatchString(q.Destination) {
		return q, domain.Invalid("destination", "must be a 3-letter IATA code")
	}
	if q.Origin == q.Destination {
		return q, domain.Invalid("destination", "must differ from origin")
	}

	dep, err := time.Parse(time.DateOnly, q.DepartureDate)
	if err != nil {
		return q, domain.Invalid("departureDate", "must be YYYY-MM-DD")
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if dep.Before(today) {
		return q, domain.Invalid("departureDate", "must not be in the past")
	}
	if q.ReturnDate != "" {
		ret, err := time.Parse(time.DateOnly, q.ReturnDate)
		if err != nil {
			return q, domain.Invalid("returnDate", "must be YYYY-MM-DD")
		}
		if ret.Before(dep) {
			return q, domain.Invalid("returnDate", "must not be before departureDate")
		}
	}

	if q.Adults < 1 {
		return q, domain.Invalid("adults", "must be at least 1")
	}
	if q.Children < 0 || q.Infants < 0 {
		return q, domain.Invalid("children", "must not be negative")
	}
	if q.Infants > q.Adults {
		return q, domain.Invalid("infants", "must not exceed adults")
	}
	if q.Adults+q.Children > maxTravellers {
		return q, domain.Invalid("adults", fmt.Sprintf("at most %d seated travellers", maxTravellers))
	}

	switch q.TravelClass {
	case "", "ECONOMY", "PREMIUM_ECONOMY", "BUSINESS", "FIRST":
	default:
		return q, domain.Invalid("travelClass", "must be ECONOMY, PREMIUM_ECONOMY, BUSINESS or FIRST")
	}

	if q.Max == 0 {
		q.Max = defaultMax
	}
	if q.Max < 1 || q.Max > maxResults {
		return q, domain.Invalid("max", fmt.Sprintf("must be between 1 and %d", maxResults))
	}
	return q, nil
}

func cacheKey(q domain.SearchQuery) string {
	return fmt.Sprintf("%s-%s-%s-%s-%d-%d-%d-%s-%t-%s-%d",
		q.Origin, q.Destination, q.DepartureDate, q.ReturnDate,
		q.Adults, q.Children, q.Infants, q.TravelClass, q.NonStop, q.Currency, q.Max)
}

var _ FlightUseCase = (*FlightService)(nil)
var _ Upstream = (*gds.Client)(nil)
