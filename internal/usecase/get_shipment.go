package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dispatch/internal/domain/shipment"

	"github.com/redis/go-redis/v9"
)

const RecordCachePrefix = "shipment:record:"

type ShipmentFinder interface {
	FindByID(ctx context.Context, shipmentID string) (*shipment.Record, error)
}

// GetShipment reads a reconciled record, cache-aside in Redis.
type GetShipment struct {
	redisClient *redis.Client
	repo        ShipmentFinder
	ttl         time.Duration
}

func NewGetShipment(redisClient *redis.Client, repo ShipmentFinder, ttl time.Duration) *GetShipment {
	return &GetShipment{
		redisClient: redisClient,
		repo:        repo,
		ttl:         ttl,
	}
}

// Execute returns nil, nil when no record exists.
func (uc *GetShipment) Execute(ctx context.Context, shipmentID string) (*shipment.Record, error) {
	cacheKey := RecordCachePrefix + shipmentID

	if uc.redisClient != nil {
		val, err := uc.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var rec shipment.Record
			if err := json.Unmarshal([]byte(val), &rec); err == nil {
				return &rec, nil
			}
		}
	}

	rec, err := uc.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	if uc.redisClient != nil && uc.ttl > 0 {
		data, _ := json.Marshal(rec)
		// short TTL so a second attempt shows up quickly
		uc.redisClient.Set(ctx, cacheKey, data, uc.ttl)
	}

	return rec, nil
}
