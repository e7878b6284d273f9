package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"dispatch/internal/domain/shipment"

	"github.com/google/uuid"
)

const (
	MessagePublished          = "Shipment event published successfully"
	MessageSnapshotSaveFailed = "Event published but snapshot save failed"
	MessagePublishFailed      = "Failed to publish shipment event"
)

type EventPublisher interface {
	Publish(ctx context.Context, ev shipment.Event) bool
}

type SnapshotWriter interface {
	Put(ctx context.Context, shipmentID string, payload []byte, ttl time.Duration) error
}

type SubmitShipmentParams struct {
	ShipmentID    string    `json:"shipmentId"`
	OrderID       string    `json:"orderId"`
	CustomerID    string    `json:"customerId"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	PostalCode    string    `json:"postalCode"`
	ServiceLevel  string    `json:"serviceLevel"`
	RequestedAt   time.Time `json:"requestedAt"`
	AttemptNumber int       `json:"attemptNumber"`
	CorrelationID string    `json:"correlationId"`
	Status        string    `json:"status,omitempty"`
}

type SubmitResult struct {
	EventID       string
	Published     bool
	SnapshotSaved bool
	Message       string
}

// SubmitShipment publishes a dispatch request and then stores the request
// snapshot consulted by second attempts.
type SubmitShipment struct {
	publisher   EventPublisher
	snapshots   SnapshotWriter
	snapshotTTL time.Duration
	logger      *slog.Logger
	newID       func() string
}

func NewSubmitShipment(publisher EventPublisher, snapshots SnapshotWriter, snapshotTTL time.Duration, logger *slog.Logger) *SubmitShipment {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitShipment{
		publisher:   publisher,
		snapshots:   snapshots,
		snapshotTTL: snapshotTTL,
		logger:      logger,
		newID:       uuid.NewString,
	}
}

// Execute never returns an error; the outcome is described by SubmitResult.
// rawRequest is stored as the snapshot; when empty the params are encoded instead.
func (uc *SubmitShipment) Execute(ctx context.Context, params SubmitShipmentParams, rawRequest []byte) SubmitResult {
	status := params.Status
	if status == "" {
		status = shipment.StatusNew
	}

	ev := shipment.Event{
		EventID:       uc.newID(),
		ShipmentID:    params.ShipmentID,
		OrderID:       params.OrderID,
		CustomerID:    params.CustomerID,
		Address:       params.Address,
		City:          params.City,
		PostalCode:    params.PostalCode,
		ServiceLevel:  params.ServiceLevel,
		RequestedAt:   params.RequestedAt,
		AttemptNumber: params.AttemptNumber,
		CorrelationID: params.CorrelationID,
		Status:        status,
	}

	if !uc.publisher.Publish(ctx, ev) {
		publishedTotal.WithLabelValues("failed").Inc()
		return SubmitResult{EventID: ev.EventID, Message: MessagePublishFailed}
	}
	publishedTotal.WithLabelValues("ok").Inc()

	result := SubmitResult{EventID: ev.EventID, Published: true, Message: MessagePublished}

	payload := rawRequest
	if len(payload) == 0 {
		params.Status = status
		var err error
		if payload, err = json.Marshal(params); err != nil {
			uc.logger.Error("failed to encode snapshot", "shipment_id", ev.ShipmentID, "error", err)
			snapshotWritesTotal.WithLabelValues("failed").Inc()
			result.Message = MessageSnapshotSaveFailed
			return result
		}
	}

	if err := uc.snapshots.Put(ctx, ev.ShipmentID, payload, uc.snapshotTTL); err != nil {
		uc.logger.Error("failed to save snapshot", "shipment_id", ev.ShipmentID, "event_id", ev.EventID, "error", err)
		snapshotWritesTotal.WithLabelValues("failed").Inc()
		result.Message = MessageSnapshotSaveFailed
		return result
	}
	snapshotWritesTotal.WithLabelValues("ok").Inc()
	result.SnapshotSaved = true

	uc.logger.Info("shipment event submitted",
		"shipment_id", ev.ShipmentID, "event_id", ev.EventID, "attempt_number", ev.AttemptNumber)
	return result
}
