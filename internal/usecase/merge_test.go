package usecase

import (
	"testing"
	"time"

	"dispatch/internal/domain/shipment"
)

func TestMergeWithSnapshot_SnapshotFieldsWin(t *testing.T) {
	ev := retryEvent()
	snapshot := `{"shipmentId":"SHP-1","orderId":"ORD-9","customerId":"CUS-9","address":"5th Ave",
		"city":"New York","postalCode":"10001","serviceLevel":"EXPRESS","correlationId":"corr-9",
		"eventId":"from-snapshot","status":"SNAPSHOT","attemptNumber":1,"requestedAt":"2020-01-01T00:00:00Z"}`

	merged, err := MergeWithSnapshot(ev, snapshot)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if merged.OrderID != "ORD-9" || merged.CustomerID != "CUS-9" || merged.Address != "5th Ave" ||
		merged.City != "New York" || merged.PostalCode != "10001" || merged.ServiceLevel != "EXPRESS" ||
		merged.CorrelationID != "corr-9" {
		t.Fatalf("business fields not taken from snapshot: %+v", merged)
	}
	if merged.EventID != ev.EventID || merged.Status != ev.Status || merged.AttemptNumber != 2 ||
		!merged.RequestedAt.Equal(ev.RequestedAt) {
		t.Fatalf("event-owned fields overwritten: %+v", merged)
	}
}

func TestMergeWithSnapshot_NullAndMissingKeepEvent(t *testing.T) {
	ev := retryEvent()
	merged, err := MergeWithSnapshot(ev, `{"address":null,"city":"Boston"}`)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Address != ev.Address {
		t.Fatalf("null snapshot value replaced address: %q", merged.Address)
	}
	if merged.City != "Boston" {
		t.Fatalf("expected city from snapshot, got %q", merged.City)
	}
	if merged.OrderID != ev.OrderID {
		t.Fatalf("missing key replaced order id: %q", merged.OrderID)
	}
}

func TestMergeWithSnapshot_ScalarsUseLiteralText(t *testing.T) {
	merged, err := MergeWithSnapshot(retryEvent(), `{"postalCode":10001,"serviceLevel":true,"city":{"name":"x"}}`)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.PostalCode != "10001" {
		t.Fatalf("expected numeric literal, got %q", merged.PostalCode)
	}
	if merged.ServiceLevel != "true" {
		t.Fatalf("expected boolean literal, got %q", merged.ServiceLevel)
	}
	if merged.City != "Springfield" {
		t.Fatalf("object value should be ignored, got %q", merged.City)
	}
}

func TestMergeWithSnapshot_EmptyStringWins(t *testing.T) {
	merged, err := MergeWithSnapshot(retryEvent(), `{"address":""}`)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Address != "" {
		t.Fatalf("expected empty address from snapshot, got %q", merged.Address)
	}
}

func TestMergeWithSnapshot_BlankShipmentIDIgnored(t *testing.T) {
	merged, err := MergeWithSnapshot(retryEvent(), `{"shipmentId":"  "}`)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.ShipmentID != "SHP-1" {
		t.Fatalf("shipment id lost: %q", merged.ShipmentID)
	}
}

func TestMergeWithSnapshot_Malformed(t *testing.T) {
	ev := retryEvent()
	for _, snapshot := range []string{"not json", "[1,2]", `"text"`, "null", "{"} {
		merged, err := MergeWithSnapshot(ev, snapshot)
		if err == nil {
			t.Fatalf("expected error for %q", snapshot)
		}
		if merged != ev {
			t.Fatalf("merged event differs from incoming for %q: %+v", snapshot, merged)
		}
	}
}

// ---------- helpers ----------

func retryEvent() shipment.Event {
	return shipment.Event{
		EventID:       "evt-2",
		ShipmentID:    "SHP-1",
		OrderID:       "ORD-1",
		CustomerID:    "CUS-1",
		Address:       "742 Evergreen Terrace",
		City:          "Springfield",
		PostalCode:    "49007",
		ServiceLevel:  "STANDARD",
		RequestedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		AttemptNumber: 2,
		CorrelationID: "corr-1",
		Status:        shipment.StatusNew,
	}
}
