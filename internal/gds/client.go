package gds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"golang.org/x/time/rate"
)

const (
	tokenPath   = "/v1/security/oauth2/token"
	searchPath  = "/v2/shopping/flight-offers"
	pricingPath = "/v1/shopping/flight-offers/pricing"
	ordersPath  = "/v1/booking/flight-orders"

	// refresh the token this long before the upstream says it expires
	tokenSkew = 60 * time.Second
)

// APIError is a non-2xx answer from the GDS.
type APIError struct {
	Status int
	Code   int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gds: status %d", e.Status)
	}
	return fmt.Sprintf("gds: status %d code %d: %s", e.Status, e.Code, e.Detail)
}

// Unwrap maps server-side failures and throttling to ErrUpstreamUnavailable.
func (e *APIError) Unwrap() error {
	if e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests {
		return domain.ErrUpstreamUnavailable
	}
	return nil
}

type Options struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	Timeout       time.Duration
	RatePerSecond float64
	SandboxDate   string
	HTTPClient    *http.Client
}

// OrderResult is what the GDS returns for a created flight order.
type OrderResult struct {
	OrderID string
	PNR     string
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	sandboxDate  string
	http         *http.Client
	limiter      *rate.Limiter
	log          logger.ILogger
	now          func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(opts Options, log logger.ILogger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		sandboxDate:  opts.SandboxDate,
		http:         httpClient,
		limiter:      rate.NewLimiter(limit, 1),
		log:          log,
		now:          time.Now,
	}
}

func (c *Client) SearchOffers(ctx context.Context, q domain.SearchQuery) ([]domain.FlightOffer, error) {
	q = c.applySandboxDate(q)

	params := url.Values{}
	params.Set("originLocationCode", q.Origin)
	params.Set("destinationLocationCode", q.Destination)
	params.Set("departureDate", q.DepartureDate)
	if q.ReturnDate != "" {
		params.Set("returnDate", q.ReturnDate)
	}
	params.Set("adults", strconv.Itoa(q.Adults))
	if q.Children > 0 {
		params.Set("children", strconv.Itoa(q.Children))
	}
	if q.Infants > 0 {
		params.Set("infants", strconv.Itoa(q.Infants))
	}
	if q.TravelClass != "" {
		params.Set("travelClass", q.TravelClass)
	}
	if q.NonStop {
		params.Set("nonStop", "true")
	}
	if q.Currency != "" {
		params.Set("currencyCode", q.Currency)
	}
	if q.Max > 0 {
		params.Set("max", strconv.Itoa(q.Max))
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, searchPath+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	offers := make([]domain.FlightOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		offer, err := decodeOffer(raw)
		if err != nil {
			c.log.Warning("skip undecodable offer", logger.Error(err))
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// PriceOffer re-quotes an offer. The returned offer carries the confirmed price.
func (c *Client) PriceOffer(ctx context.Context, offer domain.FlightOffer) (domain.FlightOffer, error) {
	raw, err := encodeOffer(offer)
	if err != nil {
		return domain.FlightOffer{}, err
	}

	req := pricingRequest{Data: pricingRequestData{Type: "flight-offers-pricing", FlightOffers: []json.RawMessage{raw}}}
	var resp pricingResponse
	if err := c.do(ctx, http.MethodPost, pricingPath, req, &resp); err != nil {
		return domain.FlightOffer{}, err
	}
	if len(resp.Data.FlightOffers) == 0 {
		return domain.FlightOffer{}, fmt.Errorf("gds: pricing returned no offers")
	}
	return decodeOffer(resp.Data.FlightOffers[0])
}

func (c *Client) CreateOrder(ctx context.Context, offer domain.FlightOffer, passengers []domain.Passenger, contact domain.Contact) (OrderResult, error) {
	raw, err := encodeOffer(offer)
	if err != nil {
		return OrderResult{}, err
	}

	req := orderRequest{Data: orderRequestData{
		Type:         "flight-order",
		FlightOffers: []json.RawMessage{raw},
		Travelers:    encodeTravelers(passengers, contact),
	}}
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, ordersPath, req, &resp); err != nil {
		return OrderResult{}, err
	}

	result := OrderResult{OrderID: resp.Data.ID}
	if len(resp.Data.AssociatedRecords) > 0 {
		result.PNR = resp.Data.AssociatedRecords[0].Reference
	}
	return result, nil
}

// applySandboxDate pins the departure to the sandbox date and shifts the
// return by the same number of days.
func (c *Client) applySandboxDate(q domain.SearchQuery) domain.SearchQuery {
	if c.sandboxDate == "" {
		return q
	}
	sandbox, err := time.Parse(time.DateOnly, c.sandboxDate)
	if err != nil {
		return q
	}
	dep, err := time.Parse(time.DateOnly, q.DepartureDate)
	if err != nil {
		q.DepartureDate = c.sandboxDate
		return q
	}
	if q.ReturnDate != "" {
		if ret, err := time.Parse(time.DateOnly, q.ReturnDate); err == nil {
			q.ReturnDate = ret.Add(sandbox.Sub(dep)).Format(time.DateOnly)
		}
	}
	q.DepartureDate = c.sandboxDate
	return q
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	err := c.send(ctx, method, path, body, out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.invalidateToken()
		err = c.send(ctx, method, path, body, out)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gds: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.amadeus+json, application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/vnd.amadeus+json")
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.Debug("gds call",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("latency", c.now().Sub(start)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gds: decode response: %w", err)
	}
	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: token: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", readAPIError(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("gds: decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("gds: empty access token")
	}

	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenSkew)
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var er errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &er); err == nil && len(er.Errors) > 0 {
		apiErr.Code = er.Errors[0].Code
		apiErr.Detail = er.Errors[0].Detail
		if apiErr.Detail == "" {
			apiErr.Detail = er.Errors[0].Title
		}
	}
	return apiErr
}
