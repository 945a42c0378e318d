package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/alphatravel/api"
	"github.com/Domenick1991/alphatravel/config"
	"github.com/Domenick1991/alphatravel/internal/auth"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokens("secret", time.Hour)
	h := Handlers{
		Flights:  api.NewFlightHandler(nil),
		Bookings: api.NewBookingHandler(nil),
		Checkout: api.NewCheckoutHandler(nil),
		Orders:   api.NewOrderHandler(nil, nil),
		Admin:    api.NewAdminHandler(nil, tokens),
		Health: api.NewHealthHandler(map[string]api.Check{
			"postgres": func(context.Context) error { return nil },
		}),
	}
	cfg := config.HTTPConfig{AllowedOrigins: origins, RatePerSecond: 100, RateBurst: 100}
	return NewRouter(cfg, h, logger.Nop())
}

func TestRouter(t *testing.T) {
	r := newTestRouter([]string{"https://alphatravel.ng"})

	tests := []struct {
		name   string
		method string
		path   string
		code   int
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK},
		{"swagger doc", http.MethodGet, "/swagger/doc.json", http.StatusOK},
		{"revenue requires token", http.MethodGet, "/api/admin/revenue", http.StatusUnauthorized},
		{"manual booking requires token", http.MethodPost, "/api/admin/bookings/manual", http.StatusUnauthorized},
		{"unknown route", http.MethodGet, "/api/hotels", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouter_SwaggerDoc(t *testing.T) {
	r := newTestRouter(nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/flights/search"`)
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter([]string{"https://alphatravel.ng"})

	req := httptest.NewRequest(http.MethodOptions, "/api/flights/search", nil)
	req.Header.Set("Origin", "https://alphatravel.ng")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://alphatravel.ng", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/flights/search", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCorsConfig(t *testing.T) {
	c := corsConfig(nil)
	assert.True(t, c.AllowAllOrigins)
	assert.False(t, c.AllowCredentials)

	c = corsConfig([]string{"*"})
	assert.True(t, c.AllowAllOrigins)

	c = corsConfig([]string{"https://alphatravel.ng"})
	assert.False(t, c.AllowAllOrigins)
	assert.True(t, c.AllowCredentials)
	assert.Equal(t, []string{"https://alphatravel.ng"}, c.AllowOrigins)
}
