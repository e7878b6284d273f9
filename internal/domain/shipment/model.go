package shipment

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusNew         = "NEW"
	StatusQueued      = "QUEUED"
	StatusQueuedCache = "QUEUED_CACHE"
)

var (
	// ErrInvalidEvent marks an event that can never be persisted (missing business key).
	ErrInvalidEvent = errors.New("invalid shipment event")
	// ErrPersistence marks a failure of the record store.
	ErrPersistence = errors.New("shipment persistence failure")
)

// Event is the decoded, in-flight dispatch request as published to Kafka.
type Event struct {
	EventID       string    `json:"eventId"`
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
	Status        string    `json:"status"`
}

// HasShipmentID reports whether the business key is set.
func (e Event) HasShipmentID() bool {
	return strings.TrimSpace(e.ShipmentID) != ""
}

// Record is the reconciled row stored in shipments_queue. ID equals ShipmentID.
type Record struct {
	ID            string     `json:"id"`
	ShipmentID    string     `json:"shipmentId"`
	OrderID       string     `json:"orderId"`
	CustomerID    string     `json:"customerId"`
	Address       string     `json:"address"`
	City          string     `json:"city"`
	PostalCode    string     `json:"postalCode"`
	ServiceLevel  string     `json:"serviceLevel"`
	RequestedAt   time.Time  `json:"requestedAt"`
	Status        string     `json:"status"`
	ReceivedAt    time.Time  `json:"receivedAt"`
	ProcessedAt   *time.Time `json:"processedAt"`
	CorrelationID string     `json:"correlationId"`
	RawPayload    string     `json:"rawPayload"`
}

// NewRecord maps an event onto a record stamped with status and receivedAt.
// ProcessedAt is left unset.
func NewRecord(e Event, status string, raw []byte, now time.Time) *Record {
	return &Record{
		ID:            e.ShipmentID,
		ShipmentID:    e.ShipmentID,
		OrderID:       e.OrderID,
		CustomerID:    e.CustomerID,
		Address:       e.Address,
		City:          e.City,
		PostalCode:    e.PostalCode,
		ServiceLevel:  e.ServiceLevel,
		RequestedAt:   e.RequestedAt,
		Status:        status,
		ReceivedAt:    now,
		CorrelationID: e.CorrelationID,
		RawPayload:    string(raw),
	}
}
