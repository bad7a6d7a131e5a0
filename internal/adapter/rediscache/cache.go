// Package rediscache provides a shared Redis tier in front of road-network lookups,
// so every replica reuses the same Overpass results.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/spatial-pattern-service/internal/domain"
	"github.com/couchcryptid/spatial-pattern-service/internal/observability"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "spatial-patterns:"

// store is the subset of the go-redis client the cache needs.
type store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RoadCache implements domain.RoadAnalyzer, consulting Redis before the inner analyzer.
// Redis failures are logged and fall through to the inner analyzer.
type RoadCache struct {
	rdb     store
	inner   domain.RoadAnalyzer
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRoadCache wraps inner with a Redis-backed cache whose entries expire after ttl.
func NewRoadCache(rdb *redis.Client, inner domain.RoadAnalyzer, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RoadCache {
	return newRoadCache(rdb, inner, ttl, metrics, logger)
}

func newRoadCache(rdb store, inner domain.RoadAnalyzer, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *RoadCache {
	return &RoadCache{rdb: rdb, inner: inner, ttl: ttl, metrics: metrics, logger: logger}
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (c *RoadCache) AnalyzeRoadNetwork(ctx context.Context, lat, lng, radiusKm float64) (domain.RoadNetworkSummary, error) {
	key := keyPrefix + domain.RoadCacheKey(lat, lng, radiusKm)

	if summary, ok := c.lookup(ctx, key); ok {
		return summary, nil
	}

	summary, err := c.inner.AnalyzeRoadNetwork(ctx, lat, lng, radiusKm)
	if err != nil {
		return summary, err
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return summary, nil
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache write failed", "key", key, "error", err)
	}
	return summary, nil
}

func (c *RoadCache) lookup(ctx context.Context, key string) (domain.RoadNetworkSummary, bool) {
	var summary domain.RoadNetworkSummary

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.metrics.RoadCache.WithLabelValues("redis", "miss").Inc()
		return summary, false
	case err != nil:
		c.metrics.RoadCache.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("redis cache read failed", "key", key, "error", err)
		return summary, false
	}

	if err := json.Unmarshal(data, &summary); err != nil {
		c.metrics.RoadCache.WithLabelValues("redis", "error").Inc()
		c.logger.Warn("redis cache entry corrupt", "key", key, "error", err)
		return summary, false
	}
	c.metrics.RoadCache.WithLabelValues("redis", "hit").Inc()
	return summary, true
}
