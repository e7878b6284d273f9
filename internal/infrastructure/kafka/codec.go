package kafka

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"dispatch/internal/domain/event"
	"dispatch/internal/domain/shipment"
)

var ErrEmptyValue = errors.New("empty record value")

// EncodeEvent renders the wire form of a shipment event.
func EncodeEvent(ev shipment.Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode shipment event: %w", err)
	}
	return b, nil
}

// DecodeEvent turns a record value into a Decoded or Undecodable message.
func DecodeEvent(value []byte) event.Message {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return event.Undecodable{Reason: ErrEmptyValue}
	}

	var ev shipment.Event
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return event.Undecodable{Reason: fmt.Errorf("decode shipment event: %w", err)}
	}

	return event.Decoded{Event: ev}
}
