package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dispatch/internal/domain/shipment"
)

type ShipmentStore interface {
	Exists(ctx context.Context, shipmentID string) (bool, error)
	// Insert returns false when a record with the same key already exists.
	Insert(ctx context.Context, rec *shipment.Record) (bool, error)
	Upsert(ctx context.Context, rec *shipment.Record) error
}

type SnapshotReader interface {
	Get(ctx context.Context, shipmentID string) (string, bool, error)
}

// ReconcileShipment decides, per event, between duplicate-skip,
// first-attempt insert and second-attempt merge-and-upsert.
// It never retries; failures are returned to the caller.
type ReconcileShipment struct {
	store  ShipmentStore
	cache  SnapshotReader
	logger *slog.Logger
	now    func() time.Time
}

func NewReconcileShipment(store ShipmentStore, cache SnapshotReader, logger *slog.Logger) *ReconcileShipment {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileShipment{
		store:  store,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for receivedAt/processedAt.
func (uc *ReconcileShipment) WithClock(now func() time.Time) *ReconcileShipment {
	uc.now = now
	return uc
}

func (uc *ReconcileShipment) Execute(ctx context.Context, ev shipment.Event, raw []byte) error {
	if !ev.HasShipmentID() {
		uc.logger.Warn("event without shipment id, routing to dead letter", "event_id", ev.EventID)
		reconcileTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: event %q has no shipment id", shipment.ErrInvalidEvent, ev.EventID)
	}

	switch ev.AttemptNumber {
	case 1:
		return uc.firstAttempt(ctx, ev, raw)
	case 2:
		return uc.secondAttempt(ctx, ev, raw)
	default:
		uc.logger.Warn("unexpected attempt number, treating as first attempt",
			"shipment_id", ev.ShipmentID, "attempt_number", ev.AttemptNumber)
		reconcileTotal.WithLabelValues("unexpected_attempt").Inc()
		return uc.firstAttempt(ctx, ev, raw)
	}
}

func (uc *ReconcileShipment) firstAttempt(ctx context.Context, ev shipment.Event, raw []byte) error {
	uc.logger.Info("processing first attempt", "shipment_id", ev.ShipmentID)

	// Fast path only; the store's unique key is the real guard.
	exists, err := uc.store.Exists(ctx, ev.ShipmentID)
	if err != nil {
		return fmt.Errorf("%w: %w", shipment.ErrPersistence, err)
	}
	if exists {
		uc.logger.Info("duplicate first attempt, skipping", "shipment_id", ev.ShipmentID)
		reconcileTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	rec := shipment.NewRecord(ev, shipment.StatusQueued, raw, uc.now().UTC())

	created, err := uc.store.Insert(ctx, rec)
	if err != nil {
		return fmt.Errorf("%w: %w", shipment.ErrPersistence, err)
	}
	if !created {
		uc.logger.Info("duplicate first attempt detected on insert", "shipment_id", ev.ShipmentID)
		reconcileTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	uc.logger.Info("first attempt processed", "shipment_id", rec.ShipmentID, "event_id", ev.EventID)
	reconcileTotal.WithLabelValues("first_attempt").Inc()
	return nil
}

func (uc *ReconcileShipment) secondAttempt(ctx context.Context, ev shipment.Event, raw []byte) error {
	uc.logger.Info("processing second attempt", "shipment_id", ev.ShipmentID)

	merged := uc.mergeSnapshot(ctx, ev)

	now := uc.now().UTC()
	rec := shipment.NewRecord(merged, shipment.StatusQueuedCache, raw, now)
	rec.ProcessedAt = &now

	if err := uc.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", shipment.ErrPersistence, err)
	}

	uc.logger.Info("second attempt processed with cache merge", "shipment_id", rec.ShipmentID, "event_id", ev.EventID)
	reconcileTotal.WithLabelValues("second_attempt").Inc()
	return nil
}

// mergeSnapshot never fails: any problem with the snapshot degrades to the
// incoming event.
func (uc *ReconcileShipment) mergeSnapshot(ctx context.Context, ev shipment.Event) shipment.Event {
	if uc.cache == nil {
		snapshotMergeTotal.WithLabelValues("miss").Inc()
		return ev
	}

	snapshot, ok, err := uc.cache.Get(ctx, ev.ShipmentID)
	if err != nil {
		uc.logger.Warn("snapshot lookup failed, using original event", "shipment_id", ev.ShipmentID, "error", err)
		snapshotMergeTotal.WithLabelValues("cache_error").Inc()
		return ev
	}
	if !ok || strings.TrimSpace(snapshot) == "" {
		snapshotMergeTotal.WithLabelValues("miss").Inc()
		return ev
	}

	merged, err := MergeWithSnapshot(ev, snapshot)
	if err != nil {
		uc.logger.Warn("failed to merge with snapshot, using original event", "shipment_id", ev.ShipmentID, "error", err)
		snapshotMergeTotal.WithLabelValues("malformed").Inc()
		return ev
	}

	snapshotMergeTotal.WithLabelValues("merged").Inc()
	return merged
}
