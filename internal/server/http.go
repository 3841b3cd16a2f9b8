package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"statuscheck/config"
	"statuscheck/internal/core"
	"statuscheck/internal/observability"
	"statuscheck/internal/statusstore"
)

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	BasePath         string   // Route prefix for the status API (default: /api)
	Greeting         string   // Message returned by GET {base}/
	CORSAllowOrigins []string // Allowed origins; "*" allows any
	BodySizeLimit    int64    // Max request body size in bytes (default: 1MB)
	ListLimit        int      // Upper bound and default for GET {base}/status?limit=
	APIKey           string   // Optional bearer token required under BasePath
	MetricsEnabled   bool     // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint  string   // HTTP path for metrics endpoint (default: /metrics)
}

// ConfigFrom maps the application configuration onto server options.
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		BasePath:         cfg.Server.BasePath,
		Greeting:         cfg.Server.Greeting,
		CORSAllowOrigins: cfg.Server.CORSAllowOrigins,
		BodySizeLimit:    cfg.Server.BodySizeLimit,
		ListLimit:        cfg.Server.ListLimit,
		APIKey:           cfg.Server.APIKey,
		MetricsEnabled:   cfg.Metrics.Enabled,
		MetricsEndpoint:  cfg.Metrics.Endpoint,
	}
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New creates a new HTTP server. metrics may be nil when metrics are disabled.
func New(store statusstore.Store, health Pinger, metrics *observability.Metrics, cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	handler := NewHandler(store, health, metrics, cfg.Greeting, cfg.ListLimit)

	// Global middleware stack (order matters)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	if metrics != nil && cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
	}
	e.Use(middleware.Recover())

	origins := cfg.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	bodySizeLimit := config.DefaultBodySizeLimit
	if cfg.BodySizeLimit > 0 {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(strconv.FormatInt(bodySizeLimit, 10)))

	// Public routes
	e.GET("/health", handler.Health)
	if metrics != nil && cfg.MetricsEnabled {
		metricsPath := "/metrics"
		if cfg.MetricsEndpoint != "" {
			metricsPath = path.Clean("/" + cfg.MetricsEndpoint)
		}
		e.GET(metricsPath, echo.WrapHandler(metrics.Handler()))
	}

	// Status API routes
	api := e.Group(normalizeBasePath(cfg.BasePath))
	if cfg.APIKey != "" {
		api.Use(AuthMiddleware(cfg.APIKey))
	}
	api.GET("", handler.Root)
	api.GET("/", handler.Root)
	api.POST("/status", handler.CreateStatus)
	api.GET("/status", handler.ListStatus)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	return strings.TrimRight(path.Clean("/"+p), "/")
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}

// errorHandler renders errors that escape handlers, including router 404/405
// and middleware rejections, in the same JSON shape as handler errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		apiErr = fromHTTPError(err, c)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(apiErr.HTTPStatusCode())
	} else {
		err = c.JSON(apiErr.HTTPStatusCode(), apiErr.ToJSON())
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

func fromHTTPError(err error, c echo.Context) *core.APIError {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return &core.APIError{
			Type:       core.ErrorTypeInternal,
			Message:    "an unexpected error occurred",
			StatusCode: http.StatusInternalServerError,
			Err:        err,
		}
	}

	switch he.Code {
	case http.StatusNotFound:
		return core.NewNotFoundError("route not found: " + c.Request().Method + " " + c.Request().URL.Path)
	case http.StatusMethodNotAllowed:
		return &core.APIError{
			Type:       core.ErrorTypeInvalidRequest,
			Message:    "method not allowed",
			StatusCode: http.StatusMethodNotAllowed,
		}
	case http.StatusRequestEntityTooLarge:
		return &core.APIError{
			Type:       core.ErrorTypeInvalidRequest,
			Message:    "request body too large",
			StatusCode: http.StatusRequestEntityTooLarge,
		}
	}

	if he.Code >= http.StatusInternalServerError {
		return &core.APIError{
			Type:       core.ErrorTypeInternal,
			Message:    "an unexpected error occurred",
			StatusCode: he.Code,
			Err:        err,
		}
	}
	return &core.APIError{
		Type:       core.ErrorTypeInvalidRequest,
		Message:    strings.ToLower(http.StatusText(he.Code)),
		StatusCode: he.Code,
		Err:        err,
	}
}
