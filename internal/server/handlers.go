// Package server provides the HTTP handlers and Echo setup for the reference status API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"statuscheck/internal/core"
	"statuscheck/internal/observability"
	"statuscheck/internal/statusstore"
)

// Handler holds the HTTP handlers
type Handler struct {
	store     statusstore.Store
	health    Pinger
	metrics   *observability.Metrics
	greeting  string
	listLimit int

	now   func() time.Time
	newID func() string
}

// NewHandler creates the handlers for store. health and metrics may be nil.
func NewHandler(store statusstore.Store, health Pinger, metrics *observability.Metrics, greeting string, listLimit int) *Handler {
	if greeting == "" {
		greeting = "Hello World"
	}
	if listLimit <= 0 {
		listLimit = statusstore.DefaultListLimit
	}
	return &Handler{
		store:     store,
		health:    health,
		metrics:   metrics,
		greeting:  greeting,
		listLimit: listLimit,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Root handles GET {base}/
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, core.RootResponse{Message: h.greeting})
}

// CreateStatus handles POST {base}/status
func (h *Handler) CreateStatus(c echo.Context) error {
	var req core.StatusCheckCreate
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+bindMessage(err), err))
	}
	if err := req.Validate(); err != nil {
		return handleError(c, err)
	}

	rec := core.StatusCheck{
		ID:         h.newID(),
		ClientName: *req.ClientName,
		Timestamp:  h.now().UTC(),
	}
	if err := h.store.Create(c.Request().Context(), &rec); err != nil {
		return handleError(c, core.NewStorageError("failed to save status check", err))
	}
	if h.metrics != nil {
		h.metrics.RecordCreated()
	}

	return c.JSON(http.StatusOK, rec)
}

// ListStatus handles GET {base}/status
func (h *Handler) ListStatus(c echo.Context) error {
	limit := h.listLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return handleError(c, core.NewInvalidRequestError("limit must be a positive integer", err))
		}
		limit = min(n, h.listLimit)
	}

	records, err := h.store.List(c.Request().Context(), limit)
	if err != nil {
		return handleError(c, core.NewStorageError("failed to list status checks", err))
	}
	return c.JSON(http.StatusOK, records)
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleError converts API errors to appropriate HTTP responses
func handleError(c echo.Context, err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode() >= http.StatusInternalServerError {
			slog.Error("request failed", "type", apiErr.Type, "error", err)
		}
		return c.JSON(apiErr.HTTPStatusCode(), apiErr.ToJSON())
	}

	slog.Error("unexpected error", "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    core.ErrorTypeInternal,
			"message": "an unexpected error occurred",
		},
	})
}

// bindMessage strips Echo's "code=400, message=" wrapper.
func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			return he.Internal.Error()
		}
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
