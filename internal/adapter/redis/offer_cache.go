package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

const (
	offerKeyPrefix = "offer:"
	statsKeyPrefix = "offer_stats:"
)

// OfferCache is a read-through cache for offer details and per-user stats.
// Entries are invalidated on every offer mutation.
type OfferCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOfferCache(client *redis.Client, ttl time.Duration) *OfferCache {
	return &OfferCache{client: client, ttl: ttl}
}

func (c *OfferCache) GetOffer(ctx context.Context, id string) (*entity.WasteOffer, error) {
	data, err := c.client.Get(ctx, offerKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var offer entity.WasteOffer
	if err := json.Unmarshal(data, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (c *OfferCache) SetOffer(ctx context.Context, offer *entity.WasteOffer) error {
	data, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, offerKeyPrefix+offer.ID, data, c.ttl).Err()
}

func (c *OfferCache) DeleteOffer(ctx context.Context, id string) error {
	return c.client.Del(ctx, offerKeyPrefix+id).Err()
}

func (c *OfferCache) GetStats(ctx context.Context, userID string) (*entity.OfferStats, error) {
	data, err := c.client.Get(ctx, statsKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats entity.OfferStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *OfferCache) SetStats(ctx context.Context, userID string, stats *entity.OfferStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKeyPrefix+userID, data, c.ttl).Err()
}

func (c *OfferCache) DeleteStats(ctx context.Context, userID string) error {
	return c.client.Del(ctx, statsKeyPrefix+userID).Err()
}
