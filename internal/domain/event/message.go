package event

import (
	"context"

	"dispatch/internal/domain/shipment"
)

// Message is the outcome of decoding one transport record.
// It is either Decoded or Undecodable.
type Message interface {
	isMessage()
}

// Decoded carries a successfully decoded shipment event.
type Decoded struct {
	Event shipment.Event
}

// Undecodable marks a record whose value could not be turned into an event.
type Undecodable struct {
	Reason error
}

func (Decoded) isMessage()     {}
func (Undecodable) isMessage() {}

// Acknowledger advances the source offset for one delivery.
// Errors are reported but callers treat acknowledgement as fire-and-forget.
type Acknowledger interface {
	Acknowledge(ctx context.Context) error
}

// AckFunc adapts a function to Acknowledger.
type AckFunc func(ctx context.Context) error

func (f AckFunc) Acknowledge(ctx context.Context) error { return f(ctx) }

// Delivery is one message pulled from the event log together with its
// offset handle and the original bytes.
type Delivery struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Raw       []byte
	Message   Message
	Ack       Acknowledger
}

// DeadLetter is what gets forwarded to the failure channel.
// Key and Value are the original record bytes, untouched.
type DeadLetter struct {
	Key         []byte
	Value       []byte
	Reason      string
	Stage       string
	SourceTopic string
	Partition   int
	Offset      int64
}

const (
	StageDecode    = "decode"
	StageReconcile = "reconcile"
)
