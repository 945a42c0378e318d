package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/alphatravel/internal/kafka"
	"github.com/Domenick1991/alphatravel/internal/logger"
)

// Sender delivers notifications. Delivery is a log line until an SMTP
// relay is provisioned.
type Sender struct {
	log logger.ILogger
}

func NewSender(log logger.ILogger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, n kafka.Notification) error {
	if n.Email == "" {
		s.log.Warning("notification without recipient", logger.String("kind", n.Kind), logger.String("reference", n.Reference))
		return nil
	}
	s.log.Info("send email",
		logger.String("to", n.Email),
		logger.String("subject", Subject(n)),
		logger.String("reference", n.Reference),
	)
	return nil
}

func Subject(n kafka.Notification) string {
	switch n.Kind {
	case kafka.EventFlightBookingCreated:
		return fmt.Sprintf("Your booking %s is %s", n.Reference, n.Status)
	case kafka.EventFlightBookingCancelled:
		return fmt.Sprintf("Booking %s cancelled", n.Reference)
	case kafka.EventFlightBookingExpired:
		return fmt.Sprintf("Booking %s expired", n.Reference)
	case kafka.EventOrderCreated, kafka.EventOrderStatusChanged:
		return fmt.Sprintf("Order %s is %s", n.Reference, n.Status)
	default:
		return "Booking update"
	}
}
