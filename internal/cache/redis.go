package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"statuscheck/internal/core"
)

// DefaultRedisKey is the hash that holds one field per list limit.
const DefaultRedisKey = "statusapi:status_checks"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	Key string
	TTL time.Duration
}

// RedisCache implements Cache on a single Redis hash.
// Invalidate deletes the whole hash, so every instance sees a create at once.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultRedisKey
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	slog.Info("redis cache connected", "key", key, "ttl", ttl)

	return &RedisCache{client: client, key: key, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, limit int) ([]core.StatusCheck, bool, error) {
	data, err := c.client.HGet(ctx, c.key, strconv.Itoa(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get listing from redis: %w", err)
	}

	var records []core.StatusCheck
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false, fmt.Errorf("failed to parse listing from redis: %w", err)
	}
	return records, true, nil
}

// Set writes the field and refreshes the hash expiry in one transaction.
func (c *RedisCache) Set(ctx context.Context, limit int, records []core.StatusCheck) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.key, strconv.Itoa(limit), data)
		pipe.Expire(ctx, c.key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set listing in redis: %w", err)
	}
	return nil
}

// Invalidate drops the hash and bumps the generation key that Fill watches.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey())
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate redis listing: %w", err)
	}
	return nil
}

// Fill loads the listing under WATCH on the generation key, so a create on any
// instance between the load and the write aborts the write.
func (c *RedisCache) Fill(ctx context.Context, limit int, load func(context.Context) ([]core.StatusCheck, error)) ([]core.StatusCheck, error) {
	var (
		records []core.StatusCheck
		loadErr error
		loaded  bool
	)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		records, loadErr = load(ctx)
		loaded = true
		if loadErr != nil {
			return nil
		}
		data, err := json.Marshal(records)
		if err != nil {
			return fmt.Errorf("failed to marshal listing: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, c.key, strconv.Itoa(limit), data)
			pipe.Expire(ctx, c.key, c.ttl)
			return nil
		})
		return err
	}, c.genKey())

	switch {
	case !loaded:
		slog.Warn("failed to watch redis listing", "error", err)
		return load(ctx)
	case loadErr != nil:
		return nil, loadErr
	case errors.Is(err, redis.TxFailedErr):
		slog.Debug("redis listing changed during fill, not cached", "limit", limit)
	case err != nil:
		slog.Warn("failed to fill redis listing", "error", err)
	}
	return records, nil
}

func (c *RedisCache) genKey() string {
	return c.key + ":gen"
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
