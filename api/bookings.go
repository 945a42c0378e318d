package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/service/booking"
	"github.com/Domenick1991/alphatravel/internal/service/flights"
	"github.com/Domenick1991/alphatravel/internal/ticket"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingResponse struct {
	Reference   string             `json:"reference"`
	PNR         string             `json:"pnr,omitempty"`
	Status      string             `json:"status"`
	Verified    bool               `json:"verified"`
	Destination string             `json:"destination,omitempty"`
	Offer       domain.FlightOffer `json:"flightOffer"`
	Passengers  []domain.Passenger `json:"passengers"`
	Contact     domain.Contact     `json:"contacts"`
	Pricing     domain.Breakdown   `json:"totalPrice"`
	Display     flights.Display    `json:"display"`
	ExpiresAt   string             `json:"expiresAt,omitempty"`
	CreatedAt   string             `json:"createdAt"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book", h.create)
	router.GET("/bookings/:reference", h.get)
	router.DELETE("/bookings/:reference", h.cancel)
	router.GET("/bookings/:reference/ticket", h.ticket)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.Cancel(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) ticket(c *gin.Context) {
	reference := c.Param("reference")
	pdf, err := h.service.Ticket(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ticket.Filename(reference)+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func toBookingResponse(b *domain.FlightBooking) bookingResponse {
	resp := bookingResponse{
		Reference:   b.Reference,
		PNR:         b.PNR,
		Status:      string(b.Status),
		Verified:    b.Verified,
		Destination: b.Destination,
		Offer:       b.Offer,
		Passengers:  b.Passengers,
		Contact:     b.Contact,
		Pricing:     b.Pricing,
		Display:     flights.DisplayOf(b.Pricing),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
	}
	if !b.ExpiresAt.IsZero() {
		resp.ExpiresAt = b.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}
