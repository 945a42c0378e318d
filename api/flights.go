package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/Domenick1991/alphatravel/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
	router.POST("/price", h.price)
}

type searchRequest struct {
	Origin        string `form:"origin"`
	Destination   string `form:"destination"`
	DepartureDate string `form:"departureDate"`
	ReturnDate    string `form:"returnDate"`
	Adults        int    `form:"adults,default=1"`
	Children      int    `form:"children"`
	Infants       int    `form:"infants"`
	TravelClass   string `form:"travelClass"`
	NonStop       bool   `form:"nonStop"`
	Currency      string `form:"currencyCode"`
	Max           int    `form:"max"`
}

type offerDisplay struct {
	Price     string `json:"price"`
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Duration  string `json:"duration"`
	Stops     int    `json:"stops"`
	Airline   string `json:"airline"`
}

type offerView struct {
	domain.FlightOffer
	Display offerDisplay `json:"display"`
}

type searchResponse struct {
	Source   domain.OfferSource `json:"source"`
	Currency string             `json:"currency"`
	Count    int                `json:"count"`
	Offers   []offerView        `json:"offers"`
}

type priceRequest struct {
	Offer domain.FlightOffer `json:"flightOffer"`
}

func (h *FlightHandler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.Search(c.Request.Context(), domain.SearchQuery{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Adults:        req.Adults,
		Children:      req.Children,
		Infants:       req.Infants,
		TravelClass:   req.TravelClass,
		NonStop:       req.NonStop,
		Currency:      req.Currency,
		Max:           req.Max,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := searchResponse{
		Source:   result.Source,
		Currency: result.Currency,
		Count:    len(result.Offers),
		Offers:   make([]offerView, 0, len(result.Offers)),
	}
	for _, offer := range result.Offers {
		resp.Offers = append(resp.Offers, offerView{FlightOffer: offer, Display: h.display(offer)})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) price(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	priced, err := h.service.Price(c.Request.Context(), req.Offer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, priced)
}

// display renders the fields every results surface shows for an offer.
func (h *FlightHandler) display(offer domain.FlightOffer) offerDisplay {
	var d offerDisplay
	if quote, err := h.service.Quote(offer); err == nil {
		d.Price = money.Format(quote.Base, quote.Currency)
	} else {
		d.Price = offer.Price.Currency + " " + offer.Price.Total
	}
	if len(offer.ValidatingAirlineCodes) > 0 {
		d.Airline = strings.Join(offer.ValidatingAirlineCodes, ", ")
	}
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return d
	}
	out := offer.Itineraries[0]
	first, last := out.Segments[0], out.Segments[len(out.Segments)-1]
	d.Departure = money.FormatClock(first.Departure.At)
	d.Arrival = money.FormatClock(last.Arrival.At)
	d.Duration = money.FormatDuration(out.Duration)
	d.Stops = len(out.Segments) - 1
	if d.Airline == "" {
		d.Airline = first.CarrierCode
	}
	return d
}
