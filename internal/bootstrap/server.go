package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/Domenick1991/alphatravel/api"
	"github.com/Domenick1991/alphatravel/config"
	_ "github.com/Domenick1991/alphatravel/internal/docs"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers groups every HTTP handler mounted by the server.
type Handlers struct {
	Flights  *api.FlightHandler
	Bookings *api.BookingHandler
	Checkout *api.CheckoutHandler
	Orders   *api.OrderHandler
	Admin    *api.AdminHandler
	Health   *api.HealthHandler
}

// Run starts the HTTP server and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers, log logger.ILogger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg.HTTP, h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server started", logger.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http %s: %w", cfg.HTTP.Address, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg config.HTTPConfig, h Handlers, log logger.ILogger) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		cors.New(corsConfig(cfg.AllowedOrigins)),
		middleware.RateLimit(cfg.RatePerSecond, cfg.RateBurst, log),
	)

	root := r.Group("/api")
	h.Health.Register(root)

	flightsGroup := root.Group("/flights")
	h.Flights.Register(flightsGroup)
	h.Bookings.Register(flightsGroup)

	h.Checkout.Register(root.Group("/checkout"))
	h.Orders.Register(root.Group("/orders"))
	h.Admin.Register(root.Group("/admin"))

	r.GET("/swagger/*any", gin.WrapH(httpSwagger.WrapHandler))
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
