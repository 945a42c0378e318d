package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/alphatravel/internal/logger"
	"github.com/segmentio/kafka-go"
)

const (
	maxHandlerAttempts = 3
	retryBackoff       = 2 * time.Second
)

// Consumer reads a topic as part of a consumer group and commits an offset
// only after the handler has dealt with the message.
type Consumer struct {
	reader  *kafka.Reader
	log     logger.ILogger
	backoff time.Duration
}

func NewConsumer(brokers []string, groupID, topic string, log logger.ILogger) *Consumer {
	if log == nil {
		log = logger.Nop()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log:     log.With(logger.String("topic", topic)),
		backoff: retryBackoff,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume blocks until ctx is done. A message whose handler keeps failing is
// logged and committed so one bad record cannot stall the group.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if err := c.handle(ctx, msg, handler); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.log.Error("drop message after retries",
				logger.Int64("offset", msg.Offset),
				logger.Int("partition", msg.Partition),
				logger.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message, handler func(context.Context, kafka.Message) error) error {
	var err error
	for attempt := 1; attempt <= maxHandlerAttempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		c.log.Warning("handle message", logger.Int("attempt", attempt), logger.Int64("offset", msg.Offset), logger.Error(err))
		if attempt == maxHandlerAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	return err
}

// ConsumeNotifications decodes each record as a Notification. Records that
// are not valid notifications are skipped.
func (c *Consumer) ConsumeNotifications(ctx context.Context, handle func(context.Context, Notification) error) error {
	return c.Consume(ctx, func(ctx context.Context, msg kafka.Message) error {
		n, err := DecodeNotification(msg)
		if err != nil {
			c.log.Warning("skip notification", logger.Int64("offset", msg.Offset), logger.Error(err))
			return nil
		}
		return handle(ctx, n)
	})
}

func DecodeNotification(msg kafka.Message) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if n.Kind == "" {
		return Notification{}, errors.New("decode notification: missing kind")
	}
	return n, nil
}
