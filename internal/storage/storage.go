// Package storage opens the database connection behind the status API.
// The status record store is built on top of whichever backend is configured.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"statuscheck/config"
)

// Storage is an open database connection.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Type returns one of config.StorageSQLite, config.StoragePostgreSQL or config.StorageMongoDB.
	Type() string

	// SQLiteDB returns the SQLite handle, or nil for other backends.
	SQLiteDB() *sql.DB

	// PostgreSQLPool returns the pgx pool, or nil for other backends.
	PostgreSQLPool() *pgxpool.Pool

	// MongoDatabase returns the MongoDB database, or nil for other backends.
	MongoDatabase() *mongo.Database

	// Ping verifies the connection is still usable.
	Ping(ctx context.Context) error

	Close() error
}

// New opens the backend named by cfg.Type.
// The in-memory backend needs no connection and is rejected here.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case config.StorageSQLite:
		return NewSQLite(ctx, cfg.SQLite)
	case config.StoragePostgreSQL:
		return NewPostgreSQL(ctx, cfg.PostgreSQL)
	case config.StorageMongoDB:
		return NewMongoDB(ctx, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (valid: sqlite, postgresql, mongodb)", cfg.Type)
	}
}
