package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	_ "modernc.org/sqlite"

	"statuscheck/config"
)

const defaultSQLitePath = "data/statusapi.db"

type sqliteStorage struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) a SQLite database file in WAL mode.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig) (Storage, error) {
	path := cfg.Path
	if path == "" {
		path = defaultSQLitePath
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &sqliteStorage{db: db}, nil
}

func (s *sqliteStorage) Type() string { return config.StorageSQLite }
func (s *sqliteStorage) SQLiteDB() *sql.DB { return s.db }
func (s *sqliteStorage) PostgreSQLPool() *pgxpool.Pool { return nil }
func (s *sqliteStorage) MongoDatabase() *mongo.Database { return nil }
func (s *sqliteStorage) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *sqliteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
