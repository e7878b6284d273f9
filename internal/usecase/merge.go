package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"dispatch/internal/domain/shipment"
)

var errSnapshotNotObject = errors.New("snapshot is not a JSON object")

// MergeWithSnapshot overlays the cached request on a retry event.
// Business fields present and non-null in the snapshot win; eventId,
// requestedAt, attemptNumber and status always come from the event.
// On error the event is returned unchanged.
func MergeWithSnapshot(ev shipment.Event, snapshot string) (shipment.Event, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(snapshot), &fields); err != nil {
		return ev, fmt.Errorf("parse snapshot: %w", err)
	}
	if fields == nil {
		return ev, errSnapshotNotObject
	}

	merged := ev
	merged.ShipmentID = pick(fields, "shipmentId", ev.ShipmentID)
	merged.OrderID = pick(fields, "orderId", ev.OrderID)
	merged.CustomerID = pick(fields, "customerId", ev.CustomerID)
	merged.Address = pick(fields, "address", ev.Address)
	merged.City = pick(fields, "city", ev.City)
	merged.PostalCode = pick(fields, "postalCode", ev.PostalCode)
	merged.ServiceLevel = pick(fields, "serviceLevel", ev.ServiceLevel)
	merged.CorrelationID = pick(fields, "correlationId", ev.CorrelationID)

	// The record key never goes blank because of a snapshot.
	if strings.TrimSpace(merged.ShipmentID) == "" {
		merged.ShipmentID = ev.ShipmentID
	}

	return merged, nil
}

func pick(fields map[string]json.RawMessage, key, fallback string) string {
	raw := bytes.TrimSpace(fields[key])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fallback
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fallback
		}
		return s
	case '{', '[':
		return fallback
	default:
		// numbers and booleans keep their literal text
		return string(raw)
	}
}
