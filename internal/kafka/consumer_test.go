package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNotification(t *testing.T) {
	n, err := DecodeNotification(kafka.Message{Value: []byte(`{"kind":"flight_booking_created","email":"ada@example.com","reference":"ALPHA-ABCD2345","status":"CONFIRMED"}`)})
	require.NoError(t, err)
	assert.Equal(t, Notification{
		Kind:      EventFlightBookingCreated,
		Email:     "ada@example.com",
		Reference: "ALPHA-ABCD2345",
		Status:    "CONFIRMED",
	}, n)

	_, err = DecodeNotification(kafka.Message{Value: []byte(`not json`)})
	assert.Error(t, err)

	_, err = DecodeNotification(kafka.Message{Value: []byte(`{"email":"ada@example.com"}`)})
	assert.ErrorContains(t, err, "missing kind")
}

func TestConsumer_handleRetries(t *testing.T) {
	c := &Consumer{log: logger.Nop()}

	calls := 0
	err := c.handle(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		calls++
		if calls < 2 {
			return errors.New("smtp timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = c.handle(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		calls++
		return errors.New("smtp down")
	})
	assert.EqualError(t, err, "smtp down")
	assert.Equal(t, maxHandlerAttempts, calls)
}

func TestConsumer_handleCanceled(t *testing.T) {
	c := &Consumer{log: logger.Nop(), backoff: retryBackoff}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.handle(ctx, kafka.Message{}, func(context.Context, kafka.Message) error {
		return errors.New("smtp down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
