package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/domain/event"
	"dispatch/internal/domain/shipment"
	"dispatch/internal/worker"
)

type Source interface {
	Fetch(ctx context.Context) (event.Delivery, error)
}

type Reconciler interface {
	Execute(ctx context.Context, ev shipment.Event, raw []byte) error
}

type DeadLetterSink interface {
	Send(ctx context.Context, topic string, dl event.DeadLetter) error
}

type Config struct {
	DLTTopic        string
	Lanes           int
	LaneBuffer      int
	FetchRetryDelay time.Duration
}

// Loop pulls deliveries and reconciles them on per-partition lanes.
// Every delivery is acknowledged exactly once; failures go to the
// dead-letter topic first.
type Loop struct {
	source     Source
	reconciler Reconciler
	deadLetter DeadLetterSink
	cfg        Config
	logger     *slog.Logger
}

func NewLoop(source Source, reconciler Reconciler, deadLetter DeadLetterSink, cfg Config, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FetchRetryDelay <= 0 {
		cfg.FetchRetryDelay = time.Second
	}
	return &Loop{
		source:     source,
		reconciler: reconciler,
		deadLetter: deadLetter,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled, then waits for every fetched delivery
// to be acknowledged. A clean shutdown returns nil.
func (l *Loop) Run(ctx context.Context) error {
	// in-flight deliveries must still reach ack after cancellation
	workCtx := context.WithoutCancel(ctx)

	pool := worker.NewPool(l.cfg.Lanes, l.cfg.LaneBuffer, func(d event.Delivery) {
		l.handle(workCtx, d)
	})
	defer pool.Close()

	l.logger.Info("ingestion loop started", "lanes", pool.Lanes(), "dlt_topic", l.cfg.DLTTopic)

	for {
		d, err := l.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("ingestion loop stopping, draining lanes")
				return nil
			}
			l.logger.Error("failed to fetch message", "error", err)
			fetchErrorsTotal.Inc()
			if !wait(ctx, l.cfg.FetchRetryDelay) {
				l.logger.Info("ingestion loop stopping, draining lanes")
				return nil
			}
			continue
		}

		pool.Submit(d.Partition, d)
	}
}

func (l *Loop) handle(ctx context.Context, d event.Delivery) {
	start := time.Now()

	outcome := l.process(ctx, d)
	l.ack(ctx, d)

	messagesTotal.WithLabelValues(outcome).Inc()
	processingDuration.Observe(time.Since(start).Seconds())
}

func (l *Loop) process(ctx context.Context, d event.Delivery) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic while handling message",
				"partition", d.Partition, "offset", d.Offset, "panic", r)
			l.sendDeadLetter(ctx, d, event.StageReconcile, fmt.Sprintf("panic: %v", r))
			outcome = outcomePanic
		}
	}()

	switch m := d.Message.(type) {
	case event.Decoded:
		err := l.reconciler.Execute(ctx, m.Event, d.Raw)
		if err == nil {
			return outcomeProcessed
		}
		l.logger.Error("failed to reconcile shipment event",
			"shipment_id", m.Event.ShipmentID,
			"event_id", m.Event.EventID,
			"partition", d.Partition,
			"offset", d.Offset,
			"error", err,
		)
		l.sendDeadLetter(ctx, d, event.StageReconcile, err.Error())
		if errors.Is(err, shipment.ErrInvalidEvent) {
			return outcomeInvalid
		}
		return outcomeFailed
	case event.Undecodable:
		reason := "undecodable payload"
		if m.Reason != nil {
			reason = m.Reason.Error()
		}
		l.sendDeadLetter(ctx, d, event.StageDecode, reason)
		return outcomeUndecodable
	default:
		l.sendDeadLetter(ctx, d, event.StageDecode, "missing decode result")
		return outcomeUndecodable
	}
}

// sendDeadLetter forwards the original key and value verbatim. A failed
// send is logged and counted only.
func (l *Loop) sendDeadLetter(ctx context.Context, d event.Delivery, stage, reason string) {
	dl := event.DeadLetter{
		Key:         d.Key,
		Value:       d.Raw,
		Reason:      reason,
		Stage:       stage,
		SourceTopic: d.Topic,
		Partition:   d.Partition,
		Offset:      d.Offset,
	}

	if err := l.deadLetter.Send(ctx, l.cfg.DLTTopic, dl); err != nil {
		l.logger.Error("failed to send message to dead letter topic",
			"topic", l.cfg.DLTTopic, "stage", stage,
			"partition", d.Partition, "offset", d.Offset, "error", err)
		deadLettersTotal.WithLabelValues(stage, "failed").Inc()
		return
	}

	l.logger.Warn("message sent to dead letter topic",
		"topic", l.cfg.DLTTopic, "stage", stage, "reason", reason,
		"partition", d.Partition, "offset", d.Offset)
	deadLettersTotal.WithLabelValues(stage, "ok").Inc()
}

func (l *Loop) ack(ctx context.Context, d event.Delivery) {
	if d.Ack == nil {
		return
	}
	if err := d.Ack.Acknowledge(ctx); err != nil {
		l.logger.Error("failed to acknowledge message",
			"partition", d.Partition, "offset", d.Offset, "error", err)
	}
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
