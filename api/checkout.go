package api

import (
	"net/http"

	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/service/checkout"
	"github.com/Domenick1991/alphatravel/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	service checkout.CheckoutUseCase
}

type travellersRequest struct {
	Passengers []domain.Passenger `json:"passengers"`
	Contact    domain.Contact     `json:"contacts"`
}

type sessionResponse struct {
	*domain.CheckoutSession
	Display flights.Display `json:"display"`
}

func NewCheckoutHandler(service checkout.CheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

func (h *CheckoutHandler) Register(router *gin.RouterGroup) {
	router.POST("/sessions", h.start)
	router.GET("/sessions/:id", h.get)
	router.PUT("/sessions/:id/travellers", h.travellers)
	router.POST("/sessions/:id/complete", h.complete)
}

func (h *CheckoutHandler) start(c *gin.Context) {
	var req checkout.StartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.service.Start(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

func (h *CheckoutHandler) get(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *CheckoutHandler) travellers(c *gin.Context) {
	var req travellersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.service.SetTravellers(c.Request.Context(), c.Param("id"), req.Passengers, req.Contact)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *CheckoutHandler) complete(c *gin.Context) {
	session, err := h.service.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func toSessionResponse(s *domain.CheckoutSession) sessionResponse {
	return sessionResponse{CheckoutSession: s, Display: flights.DisplayOf(s.Pricing)}
}
