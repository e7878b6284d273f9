package kafka

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"dispatch/internal/domain/event"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// StartOffset applies when the group has no committed offset: "earliest" (default) or "latest".
	StartOffset string
}

// Consumer pulls shipment events with manual offset commits.
type Consumer struct {
	reader messageReader
	logger *slog.Logger
}

func NewConsumer(cfg ConsumerConfig, logger *slog.Logger) *Consumer {
	startOffset := kafka.FirstOffset
	if strings.EqualFold(strings.TrimSpace(cfg.StartOffset), "latest") {
		startOffset = kafka.LastOffset
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: false, // Force IPv4
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,    // Process immediately
		MaxBytes:    10e6, // 10MB
		MaxWait:     1 * time.Second,
		Dialer:      dialer,
		StartOffset: startOffset,
	})
	return newConsumer(r, logger)
}

func newConsumer(r messageReader, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{reader: r, logger: logger}
}

// Fetch blocks for the next record and returns it decoded, with a commit handle.
func (c *Consumer) Fetch(ctx context.Context) (event.Delivery, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return event.Delivery{}, err
	}

	decoded := DecodeEvent(msg.Value)
	switch m := decoded.(type) {
	case event.Decoded:
		c.logger.Info("event received",
			"shipment_id", m.Event.ShipmentID,
			"attempt_number", m.Event.AttemptNumber,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
	case event.Undecodable:
		c.logger.Error("failed to decode shipment event",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", m.Reason,
		)
	}

	return event.Delivery{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Raw:       msg.Value,
		Message:   decoded,
		Ack: event.AckFunc(func(ctx context.Context) error {
			return c.reader.CommitMessages(ctx, msg)
		}),
	}, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
