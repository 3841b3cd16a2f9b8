package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"statuscheck/internal/core"
)

type localEntry struct {
	records   []core.StatusCheck
	expiresAt time.Time
}

// LocalCache implements Cache in process memory.
// This is suitable for single-instance deployments.
type LocalCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[int]localEntry
	now     func() time.Time
}

// NewLocalCache creates an empty cache whose entries live for ttl.
func NewLocalCache(ttl time.Duration) *LocalCache {
	return &LocalCache{
		ttl:     ttl,
		entries: make(map[int]localEntry),
		now:     time.Now,
	}
}

func (c *LocalCache) Get(_ context.Context, limit int) ([]core.StatusCheck, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[limit]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return slices.Clone(e.records), true, nil
}

func (c *LocalCache) Set(_ context.Context, limit int, records []core.StatusCheck) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[limit] = localEntry{
		records:   slices.Clone(records),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *LocalCache) Invalidate(context.Context) error {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}

// Close is a no-op for local cache.
func (c *LocalCache) Close() error {
	return nil
}
