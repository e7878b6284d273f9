package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"dispatch/internal/domain/event"
	"dispatch/internal/domain/shipment"
	"dispatch/internal/infrastructure/kafka"
	"dispatch/internal/usecase"
)

// End-to-end: submit -> transport -> loop -> reconciler -> store.
func TestPipeline_Scenarios(t *testing.T) {
	p := newPipeline(t)

	// A: first attempt creates the record
	res := p.submit.Execute(context.Background(), submitParams("S1", 1, "5th Ave"), nil)
	if !res.Published || !res.SnapshotSaved {
		t.Fatalf("submit failed: %+v", res)
	}
	p.drain(t)

	rec := p.store.get("S1")
	if rec == nil || rec.Status != shipment.StatusQueued {
		t.Fatalf("A: expected QUEUED record, got %+v", rec)
	}
	if rec.ProcessedAt != nil {
		t.Fatalf("A: processedAt must be unset")
	}

	// B: duplicate first attempt leaves a single untouched record
	dup := sampleEvent("S1", 1)
	dup.Address = "Other St"
	p.inject(t, dup)
	p.drain(t)

	if p.store.count() != 1 {
		t.Fatalf("B: expected one record, got %d", p.store.count())
	}
	if got := p.store.get("S1"); got.Address != "5th Ave" || p.store.writes != 1 {
		t.Fatalf("B: duplicate wrote to the store: %+v writes=%d", got, p.store.writes)
	}

	// C: retry with a blank address is completed from the snapshot
	retry := sampleEvent("S1", 2)
	retry.Address = ""
	p.inject(t, retry)
	p.drain(t)

	rec = p.store.get("S1")
	if rec.Status != shipment.StatusQueuedCache || rec.Address != "5th Ave" {
		t.Fatalf("C: expected merged QUEUED_CACHE record, got %+v", rec)
	}
	if rec.ProcessedAt == nil {
		t.Fatalf("C: processedAt must be set")
	}

	// D: null payload goes to the dead letter topic verbatim
	writesBefore := p.store.writes
	readsBefore := p.store.reads
	p.injectRaw([]byte("null"))
	p.drain(t)

	sent := p.sink.sent()
	if len(sent) != 1 {
		t.Fatalf("D: expected one dead letter, got %d", len(sent))
	}
	if string(sent[0].Value) != "null" || sent[0].Stage != event.StageDecode || sent[0].topic != testDLT {
		t.Fatalf("D: unexpected dead letter %+v", sent[0])
	}
	if p.store.writes != writesBefore || p.store.reads != readsBefore {
		t.Fatalf("D: store touched by undecodable record")
	}

	for offset := int64(0); offset < p.nextOffset; offset++ {
		p.acks.assertOnce(t, offset)
	}
}

func TestPipeline_MissingShipmentIDIsDeadLettered(t *testing.T) {
	p := newPipeline(t)

	p.inject(t, sampleEvent("", 1))
	p.drain(t)

	sent := p.sink.sent()
	if len(sent) != 1 || sent[0].Stage != event.StageReconcile {
		t.Fatalf("expected reconcile dead letter, got %+v", sent)
	}
	if p.store.writes != 0 || p.store.reads != 0 {
		t.Fatalf("invalid event touched the store")
	}
	p.acks.assertOnce(t, 0)
}

// ---------- helpers ----------

type pipeline struct {
	store      *memStore
	cache      *memCache
	sink       *fakeSink
	acks       *ackRecorder
	submit     *usecase.SubmitShipment
	reconciler *usecase.ReconcileShipment
	source     *fakeSource
	nextOffset int64
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	p := &pipeline{
		store:  newMemStore(),
		cache:  &memCache{values: map[string]string{}},
		sink:   &fakeSink{},
		acks:   newAckRecorder(),
		source: newFakeSource(),
	}
	p.submit = usecase.NewSubmitShipment(publisherFunc(func(_ context.Context, ev shipment.Event) bool {
		p.inject(t, ev)
		return true
	}), p.cache, 4*time.Hour, nil)
	p.reconciler = usecase.NewReconcileShipment(p.store, p.cache, nil)
	return p
}

func (p *pipeline) inject(t *testing.T, ev shipment.Event) {
	t.Helper()
	raw, err := kafka.EncodeEvent(ev)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	p.injectRaw(raw)
}

func (p *pipeline) injectRaw(raw []byte) {
	offset := p.nextOffset
	p.nextOffset++
	p.source.push(fetchResult{delivery: event.Delivery{
		Topic:   testTopic,
		Offset:  offset,
		Raw:     raw,
		Message: kafka.DecodeEvent(raw),
		Ack:     p.acks.ackFor(offset, nil),
	}})
}

// drain runs the loop over everything injected so far.
func (p *pipeline) drain(t *testing.T) {
	t.Helper()
	runLoop(t, p.source, p.reconciler, p.sink)
}

type publisherFunc func(ctx context.Context, ev shipment.Event) bool

func (f publisherFunc) Publish(ctx context.Context, ev shipment.Event) bool { return f(ctx, ev) }

func submitParams(id string, attempt int, address string) usecase.SubmitShipmentParams {
	ev := sampleEvent(id, attempt)
	return usecase.SubmitShipmentParams{
		ShipmentID:    ev.ShipmentID,
		OrderID:       ev.OrderID,
		CustomerID:    ev.CustomerID,
		Address:       address,
		City:          ev.City,
		PostalCode:    ev.PostalCode,
		ServiceLevel:  ev.ServiceLevel,
		RequestedAt:   ev.RequestedAt,
		AttemptNumber: attempt,
		CorrelationID: ev.CorrelationID,
	}
}

type memStore struct {
	mu      sync.Mutex
	records map[string]*shipment.Record
	reads   int
	writes  int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*shipment.Record{}}
}

func (s *memStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	_, ok := s.records[id]
	return ok, nil
}

func (s *memStore) Insert(_ context.Context, rec *shipment.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return false, nil
	}
	s.writes++
	s.records[rec.ID] = rec
	return true, nil
}

func (s *memStore) Upsert(_ context.Context, rec *shipment.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.records[rec.ID] = rec
	return nil
}

func (s *memStore) get(id string) *shipment.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func (c *memCache) Get(_ context.Context, id string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[id]
	return v, ok, nil
}

func (c *memCache) Put(_ context.Context, id string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[id] = string(payload)
	return nil
}
