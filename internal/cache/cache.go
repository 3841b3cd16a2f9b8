// Package cache keeps recent status listings so repeated GET /status calls skip the store.
// Supports a local in-memory backend and Redis for multi-instance deployments.
package cache

import (
	"context"
	"fmt"
	"time"

	"statuscheck/config"
	"statuscheck/internal/core"
)

// DefaultTTL bounds how long a listing may be served without a create invalidating it.
const DefaultTTL = 30 * time.Second

// Cache stores status listings keyed by list limit.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached listing for limit.
	// ok is false when nothing is cached or the entry expired.
	Get(ctx context.Context, limit int) (records []core.StatusCheck, ok bool, err error)

	// Set stores the listing for limit.
	Set(ctx context.Context, limit int, records []core.StatusCheck) error

	// Invalidate drops every cached listing.
	Invalidate(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// Filler is implemented by caches shared between processes. Fill calls load
// and stores its result unless an Invalidate from any process landed after the
// fill began. Cache failures are logged; only load errors are returned.
type Filler interface {
	Fill(ctx context.Context, limit int, load func(context.Context) ([]core.StatusCheck, error)) ([]core.StatusCheck, error)
}

// New builds the cache selected by cfg.Type. "none" yields a NoopCache.
func New(cfg config.CacheConfig) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch cfg.Type {
	case config.CacheNone, "":
		return NoopCache{}, nil
	case config.CacheLocal:
		return NewLocalCache(ttl), nil
	case config.CacheRedis:
		return NewRedisCache(RedisConfig{URL: cfg.Redis.URL, Key: cfg.Redis.Key, TTL: ttl})
	default:
		return nil, fmt.Errorf("unknown cache type: %s (valid: none, local, redis)", cfg.Type)
	}
}

// NoopCache never holds anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int) ([]core.StatusCheck, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, int, []core.StatusCheck) error { return nil }
func (NoopCache) Invalidate(context.Context) error { return nil }
func (NoopCache) Close() error { return nil }
