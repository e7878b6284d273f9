package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSnapshotPrefix = "ship:event:"

// SnapshotStore keeps the producer's original request per shipment so a
// retry can be enriched by the consumer. Expiry is left to Redis.
type SnapshotStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewSnapshotStore(client *redis.Client, prefix string, logger *slog.Logger) *SnapshotStore {
	if prefix == "" {
		prefix = DefaultSnapshotPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{client: client, prefix: prefix, logger: logger}
}

func (s *SnapshotStore) key(shipmentID string) string {
	return s.prefix + shipmentID
}

// Get returns the cached snapshot. A missing key is reported as ok=false with no error.
func (s *SnapshotStore) Get(ctx context.Context, shipmentID string) (string, bool, error) {
	key := s.key(shipmentID)

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.Warn("no snapshot found in redis", "key", key)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get snapshot %s: %w", key, err)
	}

	s.logger.Info("snapshot found in redis", "key", key)
	return val, true, nil
}

func (s *SnapshotStore) Put(ctx context.Context, shipmentID string, payload []byte, ttl time.Duration) error {
	key := s.key(shipmentID)

	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot %s: %w", key, err)
	}

	s.logger.Info("snapshot saved", "key", key, "ttl", ttl.String())
	return nil
}
