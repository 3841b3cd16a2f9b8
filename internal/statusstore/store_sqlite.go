package statusstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"statuscheck/internal/core"
)

// Fixed width so lexical order matches chronological order.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore runs pending migrations and returns the store.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if err := migrate(ctx, db, "sqlite3", "migrations/sqlite"); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, rec *core.StatusCheck) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status_checks (id, client_name, timestamp) VALUES (?, ?, ?)`,
		rec.ID, rec.ClientName, rec.Timestamp.UTC().Format(sqliteTimeFormat))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("failed to insert status check: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]core.StatusCheck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_name, timestamp FROM status_checks ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query status checks: %w", err)
	}
	defer rows.Close()

	out := make([]core.StatusCheck, 0)
	for rows.Next() {
		var rec core.StatusCheck
		var ts string
		if err := rows.Scan(&rec.ID, &rec.ClientName, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan status check: %w", err)
		}
		rec.Timestamp, err = time.Parse(sqliteTimeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status checks: %w", err)
	}
	return out, nil
}

// Close is a no-op; the connection belongs to storage.Storage.
func (s *SQLiteStore) Close() error {
	return nil
}
