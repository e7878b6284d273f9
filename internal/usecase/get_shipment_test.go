package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/domain/shipment"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestGetShipment_CacheAside(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := &fakeFinder{rec: shipment.NewRecord(retryEvent(), shipment.StatusQueued, nil, fixedNow)}
	uc := NewGetShipment(client, repo, 2*time.Second)

	rec, err := uc.Execute(context.Background(), "SHP-1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if rec == nil || rec.Status != shipment.StatusQueued {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !mr.Exists(RecordCachePrefix + "SHP-1") {
		t.Fatalf("record not cached")
	}

	if _, err := uc.Execute(context.Background(), "SHP-1"); err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if repo.calls != 1 {
		t.Fatalf("expected cached read, repo calls=%d", repo.calls)
	}

	mr.FastForward(3 * time.Second)
	if _, err := uc.Execute(context.Background(), "SHP-1"); err != nil {
		t.Fatalf("third execute: %v", err)
	}
	if repo.calls != 2 {
		t.Fatalf("expected repo read after expiry, repo calls=%d", repo.calls)
	}
}

func TestGetShipment_NotFoundIsNotCached(t *testing.T) {
	mr, client := newTestRedis(t)
	uc := NewGetShipment(client, &fakeFinder{}, 2*time.Second)

	rec, err := uc.Execute(context.Background(), "missing")
	if err != nil || rec != nil {
		t.Fatalf("expected nil, nil got %+v, %v", rec, err)
	}
	if mr.Exists(RecordCachePrefix + "missing") {
		t.Fatalf("miss must not be cached")
	}
}

func TestGetShipment_RepoError(t *testing.T) {
	uc := NewGetShipment(nil, &fakeFinder{err: errors.New("db down")}, time.Second)

	if _, err := uc.Execute(context.Background(), "SHP-1"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGetShipment_WithoutRedis(t *testing.T) {
	repo := &fakeFinder{rec: shipment.NewRecord(retryEvent(), shipment.StatusQueued, nil, fixedNow)}
	uc := NewGetShipment(nil, repo, time.Second)

	rec, err := uc.Execute(context.Background(), "SHP-1")
	if err != nil || rec == nil {
		t.Fatalf("expected record, got %+v, %v", rec, err)
	}
}

// ---------- helpers ----------

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type fakeFinder struct {
	rec   *shipment.Record
	err   error
	calls int
}

func (f *fakeFinder) FindByID(_ context.Context, _ string) (*shipment.Record, error) {
	f.calls++
	return f.rec, f.err
}
