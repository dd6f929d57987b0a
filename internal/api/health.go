package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultHealthCheckTimeout = 5 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and client configuration endpoints.
type HealthHandler struct {
	db       Pinger
	provider string
	timezone string
	timeout  time.Duration
}

// NewHealthHandler creates a health handler. provider is the configured
// language model ("none" means every component runs its fallback).
func NewHealthHandler(db Pinger, provider, timezone string) *HealthHandler {
	return &HealthHandler{
		db:       db,
		provider: provider,
		timezone: timezone,
		timeout:  defaultHealthCheckTimeout,
	}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok", "model": h.provider}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// GetConfig returns what a chat client needs to know about this server.
func (h *HealthHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ai_enabled":   h.provider != "" && h.provider != "none",
		"llm_provider": h.provider,
		"timezone":     h.timezone,
		"languages":    []string{"en", "sv"},
	})
}

// RegisterHealth registers the public routes.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/api/config", h.GetConfig)
}
