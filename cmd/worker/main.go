package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/alphatravel/config"
	"github.com/Domenick1991/alphatravel/internal/email"
	"github.com/Domenick1991/alphatravel/internal/kafka"
	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/Domenick1991/alphatravel/internal/money"
	"github.com/Domenick1991/alphatravel/internal/repository"
	"github.com/Domenick1991/alphatravel/internal/service/booking"
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

	lg := logger.New(cfg.ServiceName+"-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		lg.Error("connect postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, lg.With(logger.String("component", "kafka")))
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	policy := money.Policy{
		Currency:       cfg.Pricing.Currency,
		ServiceFee:     cfg.Pricing.ServiceFeeMinor,
		TaxBasisPoints: cfg.Pricing.Tax(),
	}
	// the sweeper never places orders or takes locks
	bookingService := booking.NewBookingService(
		bookingRepo,
		nil,
		nil,
		nil,
		producer,
		money.NewConverter(cfg.Pricing.Currency, cfg.Pricing.ExchangeRates),
		policy,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.LockTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.ConfirmationTTL)*time.Minute,
		lg.With(logger.String("component", "booking")),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, lg.With(logger.String("component", "consumer")))
	defer consumer.Close()

	emailSender := email.NewSender(lg.With(logger.String("component", "email")))

	go func() {
		err := consumer.ConsumeNotifications(ctx, emailSender.Send)
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("consumer stopped", logger.Error(err))
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	lg.Info("worker started", logger.String("topic", cfg.Kafka.NotificationsTopic))
	for {
		select {
		case <-expireTicker.C:
			if _, err := bookingService.ExpirePending(ctx); err != nil {
				lg.Error("expire bookings", logger.Error(err))
			}
		case <-ctx.Done():
			lg.Info("shutting down worker")
			return
		}
	}
}
