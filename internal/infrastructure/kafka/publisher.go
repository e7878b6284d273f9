package kafka

import (
	"context"
	"log/slog"

	"dispatch/internal/domain/shipment"
)

// Publisher sends shipment events to the main topic keyed by shipment id.
type Publisher struct {
	producer *Producer
	topic    string
	logger   *slog.Logger
}

func NewPublisher(producer *Producer, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// Publish reports success as a bool; transport errors are logged, not returned.
func (p *Publisher) Publish(ctx context.Context, ev shipment.Event) bool {
	value, err := EncodeEvent(ev)
	if err != nil {
		p.logger.Error("failed to encode event", "shipment_id", ev.ShipmentID, "error", err)
		return false
	}

	p.logger.Info("publishing event", "topic", p.topic, "key", ev.ShipmentID)

	if err := p.producer.SendMessage(ctx, p.topic, []byte(ev.ShipmentID), value); err != nil {
		p.logger.Error("failed to publish event", "shipment_id", ev.ShipmentID, "error", err)
		return false
	}

	p.logger.Info("event published", "event_id", ev.EventID, "shipment_id", ev.ShipmentID)
	return true
}
