package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vytor/dailyalbum/internal/logger"
	"github.com/vytor/dailyalbum/internal/models"
)

const cacheKeyPrefix = "dailyalbum:entity:"

// cacheStore is the subset of *redis.Client the cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// CachedClient serves summaries from redis and falls back to next on a miss.
// Redis failures are logged and never surface to the caller.
type CachedClient struct {
	next  Client
	store cacheStore
	ttl   time.Duration
}

func NewCachedClient(next Client, store cacheStore, ttl time.Duration) *CachedClient {
	return &CachedClient{next: next, store: store, ttl: ttl}
}

func (c *CachedClient) FetchEntitySummary(ctx context.Context, id string) (*models.EntitySummary, error) {
	log := logger.FromContext(ctx).WithPrefix("catalog_cache").WithField("entity_id", id)
	key := cacheKeyPrefix + id

	raw, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var summary models.EntitySummary
		if err := json.Unmarshal(raw, &summary); err == nil {
			log.Debug("cache hit")
			return &summary, nil
		}
		log.Warn("discarding unreadable cache entry")
	case errors.Is(err, redis.Nil):
		log.Debug("cache miss")
	default:
		log.Warn("cache read failed, using catalog directly: %v", err)
	}

	summary, err := c.next.FetchEntitySummary(ctx, id)
	if err != nil || summary == nil {
		return summary, err
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		log.Warn("failed to encode summary for cache: %v", err)
		return summary, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn("cache write failed: %v", err)
	}
	return summary, nil
}
