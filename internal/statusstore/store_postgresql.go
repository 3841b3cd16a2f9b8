package statusstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"statuscheck/internal/core"
)

// PostgreSQLStore implements Store on a pgx connection pool.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore runs pending migrations through a database/sql view of pool.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := migrate(ctx, db, "postgres", "migrations/postgres"); err != nil {
		return nil, err
	}

	return &PostgreSQLStore{pool: pool}, nil
}

func (s *PostgreSQLStore) Create(ctx context.Context, rec *core.StatusCheck) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO status_checks (id, client_name, timestamp) VALUES ($1, $2, $3)`,
		rec.ID, rec.ClientName, rec.Timestamp.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("failed to insert status check: %w", err)
	}
	return nil
}

func (s *PostgreSQLStore) List(ctx context.Context, limit int) ([]core.StatusCheck, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, client_name, timestamp FROM status_checks ORDER BY timestamp DESC LIMIT $1`,
		normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query status checks: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.StatusCheck, error) {
		var rec core.StatusCheck
		err := row.Scan(&rec.ID, &rec.ClientName, &rec.Timestamp)
		rec.Timestamp = rec.Timestamp.UTC()
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan status checks: %w", err)
	}
	return out, nil
}

// Close is a no-op; the pool belongs to storage.Storage.
func (s *PostgreSQLStore) Close() error {
	return nil
}
