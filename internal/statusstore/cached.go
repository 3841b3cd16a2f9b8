package statusstore

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"statuscheck/internal/cache"
	"statuscheck/internal/core"
)

// CachedStore serves List from a cache and invalidates it on every Create.
// Cache failures are logged and fall through to the wrapped store.
//
// A List that read the store before a concurrent Create must not write its
// result back. Caches shared between processes enforce that themselves through
// cache.Filler. For the rest, gen counts creates and fillMu orders a fill
// against a Create's bump and invalidate, so a stale fill is skipped or wiped.
type CachedStore struct {
	Store
	cache    cache.Cache
	onLookup func(hit bool)

	fillMu sync.Mutex
	gen    atomic.Uint64
}

// NewCachedStore wraps store with c. A nil or no-op cache returns store unchanged.
// onLookup, if set, is told whether each List was a cache hit.
func NewCachedStore(store Store, c cache.Cache, onLookup func(hit bool)) Store {
	if c == nil {
		return store
	}
	if _, ok := c.(cache.NoopCache); ok {
		return store
	}
	return &CachedStore{Store: store, cache: c, onLookup: onLookup}
}

func (s *CachedStore) Create(ctx context.Context, rec *core.StatusCheck) error {
	if err := s.Store.Create(ctx, rec); err != nil {
		return err
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gen.Add(1)
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate status cache", "error", err)
	}
	return nil
}

func (s *CachedStore) List(ctx context.Context, limit int) ([]core.StatusCheck, error) {
	limit = normalizeLimit(limit)

	records, ok, err := s.cache.Get(ctx, limit)
	if err != nil {
		slog.Warn("failed to read status cache", "error", err)
	}
	if s.onLookup != nil {
		s.onLookup(ok)
	}
	if ok {
		return records, nil
	}

	if f, ok := s.cache.(cache.Filler); ok {
		return f.Fill(ctx, limit, func(ctx context.Context) ([]core.StatusCheck, error) {
			return s.Store.List(ctx, limit)
		})
	}

	gen := s.gen.Load()
	records, err = s.Store.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.gen.Load() != gen {
		return records, nil
	}
	if err := s.cache.Set(ctx, limit, records); err != nil {
		slog.Warn("failed to fill status cache", "error", err)
	}
	return records, nil
}

// Close closes the cache. The wrapped store is closed by its owner.
func (s *CachedStore) Close() error {
	return s.cache.Close()
}
