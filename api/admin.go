package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/alphatravel/internal/auth"
	"github.com/Domenick1991/alphatravel/internal/domain"
	"github.com/Domenick1991/alphatravel/internal/middleware"
	"github.com/Domenick1991/alphatravel/internal/service/admin"
	"github.com/Domenick1991/alphatravel/internal/service/orders"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service admin.AdminUseCase
	tokens  middleware.TokenParser
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAdminHandler(service admin.AdminUseCase, tokens middleware.TokenParser) *AdminHandler {
	return &AdminHandler{service: service, tokens: tokens}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login)
	router.GET("/revenue", middleware.RequireRoles(h.tokens, auth.RoleAdmin, auth.RoleMerchant), h.revenue)
	router.POST("/bookings/manual", middleware.RequireRoles(h.tokens, auth.RoleAdmin), h.manualBooking)
}

func (h *AdminHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AdminHandler) revenue(c *gin.Context) {
	from, err := parseBound(c.Query("from"), false)
	if err != nil {
		respondError(c, domain.Invalid("from", "must be YYYY-MM-DD or RFC3339"))
		return
	}
	to, err := parseBound(c.Query("to"), true)
	if err != nil {
		respondError(c, domain.Invalid("to", "must be YYYY-MM-DD or RFC3339"))
		return
	}

	merchantID, ok := middleware.MerchantScope(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "merchant account has no merchant id"})
		return
	}

	report, err := h.service.Revenue(c.Request.Context(), admin.RevenueFilter{From: from, To: to, MerchantID: merchantID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) manualBooking(c *gin.Context) {
	var req orders.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var author string
	if claims, ok := middleware.Claims(c); ok {
		author = claims.Subject
	}

	order, err := h.service.ManualBooking(c.Request.Context(), req, author)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// parseBound accepts a calendar day or a timestamp. A day used as the upper
// bound covers the whole day.
func parseBound(v string, upper bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		if upper {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
