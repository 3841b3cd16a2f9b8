package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"statuscheck/config"
)

const (
	defaultPostgresMaxConns = 10
	postgresConnectTimeout  = 10 * time.Second
)

type postgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgreSQL opens a pgx pool tagged with application_name=statusapi and
// fails unless the server answers a ping within postgresConnectTimeout.
func NewPostgreSQL(ctx context.Context, cfg config.PostgreSQLConfig) (Storage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("PostgreSQL URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL URL: %w", err)
	}
	poolCfg.MaxConns = defaultPostgresMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = "statusapi"
	}

	connectCtx, cancel := context.WithTimeout(ctx, postgresConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	slog.Debug("postgresql pool ready",
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_conns", poolCfg.MaxConns,
	)
	return &postgresStorage{pool: pool}, nil
}

func (s *postgresStorage) Type() string { return config.StoragePostgreSQL }
func (s *postgresStorage) SQLiteDB() *sql.DB { return nil }
func (s *postgresStorage) PostgreSQLPool() *pgxpool.Pool { return s.pool }
func (s *postgresStorage) MongoDatabase() *mongo.Database { return nil }
func (s *postgresStorage) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *postgresStorage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
