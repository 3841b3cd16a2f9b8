// Package app wires configuration, storage, cache and HTTP server into the
// reference status service and controls its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"statuscheck/config"
	"statuscheck/internal/cache"
	"statuscheck/internal/observability"
	"statuscheck/internal/server"
	"statuscheck/internal/statusstore"
)

// App represents the status service with all its dependencies.
type App struct {
	config  *config.Config
	store   *statusstore.Result
	cache   cache.Cache
	metrics *observability.Metrics
	server  *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is required")
	}

	app := &App{config: cfg}

	storeResult, err := statusstore.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.store = storeResult

	listCache, err := cache.New(cfg.Cache)
	if err != nil {
		if closeErr := app.store.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w (also: storage close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	app.cache = listCache

	var onLookup func(bool)
	if cfg.Metrics.Enabled {
		app.metrics = observability.NewMetrics()
		onLookup = app.metrics.CacheLookup
	}

	store := statusstore.NewCachedStore(storeResult.Store, listCache, onLookup)
	app.server = server.New(store, storeResult, app.metrics, server.ConfigFrom(cfg))

	app.logStartupInfo()
	return app, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, then closes the cache and storage.
// It is idempotent, attempts every step and joins the failures.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Error("storage close error", "error", err)
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Server.APIKey == "" {
		slog.Warn("STATUSAPI_API_KEY not set, status routes are unauthenticated")
	} else {
		slog.Info("authentication enabled", "mode", "api_key")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	slog.Info("storage configured", "type", cfg.Storage.Type)
	slog.Info("list cache configured", "type", cfg.Cache.Type, "ttl", cfg.Cache.TTL)
	slog.Info("routes mounted", "base_path", cfg.Server.BasePath, "cors_allow_origins", cfg.Server.CORSAllowOrigins)
}
