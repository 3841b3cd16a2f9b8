package statusstore

import (
	"context"
	"fmt"
	"sync"

	"statuscheck/internal/core"
)

// MemoryStore keeps records in process memory. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []core.StatusCheck
	ids     map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

func (s *MemoryStore) Create(_ context.Context, rec *core.StatusCheck) error {
	if rec == nil {
		return fmt.Errorf("record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	s.ids[rec.ID] = struct{}{}
	s.records = append(s.records, *rec)
	return nil
}

// List walks the slice backwards since records are appended in creation order.
func (s *MemoryStore) List(_ context.Context, limit int) ([]core.StatusCheck, error) {
	limit = normalizeLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.records))
	out := make([]core.StatusCheck, 0, n)
	for i := len(s.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
