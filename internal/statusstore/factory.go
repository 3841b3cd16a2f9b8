package statusstore

import (
	"context"
	"errors"
	"fmt"

	"statuscheck/config"
	"statuscheck/internal/storage"
)

// Result holds the initialized store and the connection behind it.
// The caller is responsible for calling Close() to release resources.
type Result struct {
	Store   Store
	Storage storage.Storage
}

// Close releases the store and its connection. Safe to call multiple times.
func (r *Result) Close() error {
	var errs []error
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
		r.Store = nil
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
		r.Storage = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// Ping checks the underlying connection. The memory store is always reachable.
func (r *Result) Ping(ctx context.Context) error {
	if r.Storage == nil {
		return nil
	}
	return r.Storage.Ping(ctx)
}

// New opens the configured backend and builds a Store on it.
func New(ctx context.Context, cfg config.StorageConfig) (*Result, error) {
	if cfg.Type == config.StorageMemory {
		return &Result{Store: NewMemoryStore()}, nil
	}

	conn, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	store, err := createStore(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Result{Store: store, Storage: conn}, nil
}

func createStore(ctx context.Context, conn storage.Storage) (Store, error) {
	switch conn.Type() {
	case config.StorageSQLite:
		return NewSQLiteStore(ctx, conn.SQLiteDB())
	case config.StoragePostgreSQL:
		return NewPostgreSQLStore(ctx, conn.PostgreSQLPool())
	case config.StorageMongoDB:
		return NewMongoDBStore(ctx, conn.MongoDatabase())
	default:
		return nil, fmt.Errorf("unknown storage type: %s", conn.Type())
	}
}
