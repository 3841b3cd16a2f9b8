// Package statusstore persists status records for the reference service.
package statusstore

import (
	"context"
	"errors"

	"statuscheck/internal/core"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 1000

// ErrDuplicateID is returned by Create when a record with the same id exists.
var ErrDuplicateID = errors.New("status record already exists")

// Store reads and writes status records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create persists rec. rec.ID and rec.Timestamp must already be set.
	Create(ctx context.Context, rec *core.StatusCheck) error

	// List returns at most limit records, newest first.
	List(ctx context.Context, limit int) ([]core.StatusCheck, error)

	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
