package kafka

import (
	"context"
	"strconv"

	"dispatch/internal/domain/event"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderReason          = "x-dlt-reason"
	HeaderStage           = "x-dlt-stage"
	HeaderSourceTopic     = "x-dlt-source-topic"
	HeaderSourcePartition = "x-dlt-source-partition"
	HeaderSourceOffset    = "x-dlt-source-offset"
)

// DeadLetterWriter forwards original records, unchanged, to a failure topic.
// Diagnostics travel in headers so the value stays verbatim.
type DeadLetterWriter struct {
	producer *Producer
}

func NewDeadLetterWriter(producer *Producer) *DeadLetterWriter {
	return &DeadLetterWriter{producer: producer}
}

func (w *DeadLetterWriter) Send(ctx context.Context, topic string, dl event.DeadLetter) error {
	headers := []kafka.Header{
		{Key: HeaderReason, Value: []byte(dl.Reason)},
		{Key: HeaderStage, Value: []byte(dl.Stage)},
		{Key: HeaderSourceTopic, Value: []byte(dl.SourceTopic)},
		{Key: HeaderSourcePartition, Value: []byte(strconv.Itoa(dl.Partition))},
		{Key: HeaderSourceOffset, Value: []byte(strconv.FormatInt(dl.Offset, 10))},
	}
	return w.producer.SendMessage(ctx, topic, dl.Key, dl.Value, headers...)
}
