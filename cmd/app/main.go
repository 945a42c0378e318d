package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/alphatravel/api"
	"github.com/Domenick1991/alphatravel/config"
	"github.com/Domenick1991/alphatravel/internal/auth"
	"github.com/Domenick1991/alphatravel/internal/bootstrap"
	"github.com/Domenick1991/alphatravel/internal/cache"
	"github.com/Domenick1991/alphatravel/internal/gds"
	"github.com/Domenick1991/alphatravel/internal/kafka"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/Domenick1991/alphatravel/internal/repository"
	"github.com/Domenick1991/alphatravel/internal/service/admin"
	"github.com/Domenick1991/alphatravel/internal/service/booking"
	"github.com/Domenick1991/alphatravel/internal/service/checkout"
	"github.com/Domenick1991/alphatravel/internal/service/flights"
	"github.com/Domenick1991/alphatravel/internal/service/orders"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.New(cfg.ServiceName, cfg.LogLevel)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Auth.JWTSecret == "" {
		lg.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.MigrateOnBoot {
		if err := repository.Migrate(cfg.Database.URL()); err != nil {
			lg.Error("migrate database", logger.Error(err))
			os.Exit(1)
		}
		lg.Info("database migrated")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		lg.Error("connect postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	reporting, err := repository.OpenReporting(cfg.Database.ReportDSN())
	if err != nil {
		lg.Error("open reporting database", logger.Error(err))
		os.Exit(1)
	}
	defer reporting.Close()

	redisCache := cache.NewRedisCache(
		cfg.Redis,
		time.Duration(cfg.GDS.SearchCacheTTL)*time.Second,
		time.Duration(cfg.GDS.OfferTTLMinutes)*time.Minute,
	)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, lg.With(logger.String("component", "kafka")))
	defer producer.Close()

	gdsClient := gds.NewClient(gds.Options{
		BaseURL:       cfg.GDS.BaseURL,
		ClientID:      cfg.GDS.ClientID,
		ClientSecret:  cfg.GDS.ClientSecret,
		Timeout:       time.Duration(cfg.GDS.TimeoutSeconds) * time.Second,
		RatePerSecond: cfg.GDS.RatePerSecond,
		SandboxDate:   cfg.GDS.SandboxDate,
	}, lg.With(logger.String("component", "gds")))

	converter := money.NewConverter(cfg.Pricing.Currency, cfg.Pricing.ExchangeRates)
	policy := money.Policy{
		Currency:       cfg.Pricing.Currency,
		ServiceFee:     cfg.Pricing.ServiceFeeMinor,
		TaxBasisPoints: cfg.Pricing.Tax(),
	}
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)

	bookingRepo := repository.NewBookingRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	reportRepo := repository.NewReportRepository(reporting)

	flightService := flights.NewFlightService(
		gdsClient,
		redisCache,
		converter,
		policy,
		lg.With(logger.String("component", "flights")),
		flights.WithFallback(cfg.GDS.FallbackEnabled),
	)
	bookingService := booking.NewBookingService(
		bookingRepo,
		flightService,
		gdsClient,
		redisCache,
		producer,
		converter,
		policy,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.LockTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.ConfirmationTTL)*time.Minute,
		lg.With(logger.String("component", "booking")),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithReferencePrefix(cfg.Pricing.ReferencePrefix),
	)
	checkoutService := checkout.NewCheckoutService(
		redisCache,
		flightService,
		bookingService,
		time.Duration(cfg.Checkout.SessionTTLMinutes)*time.Minute,
		lg.With(logger.String("component", "checkout")),
	)
	orderService := orders.NewOrderService(
		orderRepo,
		producer,
		cfg.Kafka.OrderEventsTopic,
		cfg.Pricing.Currency,
		lg.With(logger.String("component", "orders")),
		orders.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	adminService := admin.NewAdminService(
		cfg.Auth.Accounts,
		tokens,
		reportRepo,
		orderService,
		cfg.Pricing.Currency,
		cfg.Pricing.CommissionRate,
		lg.With(logger.String("component", "admin")),
	)

	handlers := bootstrap.Handlers{
		Flights:  api.NewFlightHandler(flightService),
		Bookings: api.NewBookingHandler(bookingService),
		Checkout: api.NewCheckoutHandler(checkoutService),
		Orders:   api.NewOrderHandler(orderService, tokens),
		Admin:    api.NewAdminHandler(adminService, tokens),
		Health: api.NewHealthHandler(map[string]api.Check{
			"postgres": pool.Ping,
			"redis":    redisCache.Ping,
			"kafka":    producer.CheckConnection,
		}),
	}

	if err := bootstrap.Run(ctx, cfg, handlers, lg); err != nil {
		lg.Error("server error", logger.Error(err))
		os.Exit(1)
	}
}
