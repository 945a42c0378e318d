package api

import (
	"net/http"

	"github.com/Domenick1991/alphatravel/internal/auth"
	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/middleware"
	"github.com/Domenick1991/alphatravel/internal/service/orders"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	service orders.OrderUseCase
	tokens  middleware.TokenParser
}

type listOrdersRequest struct {
	Type   string `form:"type"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

type updateStatusRequest struct {
	ID      string             `json:"id"`
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

type ordersResponse struct {
	Orders []domain.Order `json:"orders"`
	Count  int            `json:"count"`
}

func NewOrderHandler(service orders.OrderUseCase, tokens middleware.TokenParser) *OrderHandler {
	return &OrderHandler{service: service, tokens: tokens}
}

// Register leaves order creation public; reading and changing orders needs a
// dashboard token.
func (h *OrderHandler) Register(router *gin.RouterGroup) {
	dashboard := middleware.RequireRoles(h.tokens, auth.RoleAdmin, auth.RoleMerchant)

	router.POST("/create", h.create)
	router.GET("/create", dashboard, h.list)
	router.GET("", dashboard, h.list)
	router.PATCH("/update-status", dashboard, h.updateStatus)
}

func (h *OrderHandler) create(c *gin.Context) {
	var req orders.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) list(c *gin.Context) {
	var req listOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	merchantID, ok := middleware.MerchantScope(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "merchant account has no merchant id"})
		return
	}

	list, err := h.service.List(c.Request.Context(), orders.ListOrdersFilter{
		Type:       domain.OrderType(req.Type),
		Status:     domain.OrderStatus(req.Status),
		MerchantID: merchantID,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if list == nil {
		list = []domain.Order{}
	}
	c.JSON(http.StatusOK, ordersResponse{Orders: list, Count: len(list)})
}

func (h *OrderHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := req.ID
	if id == "" {
		id = req.OrderID
	}
	merchantID, ok := middleware.MerchantScope(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "merchant account has no merchant id"})
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, merchantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
