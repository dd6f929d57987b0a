package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ashureev/chorechat/internal/api"
	"github.com/ashureev/chorechat/internal/identity"
	"github.com/ashureev/chorechat/internal/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// defaultMaxRequestBodySize is the default maximum allowed request body size (1MB).
const defaultMaxRequestBodySize = 1 << 20

const (
	defaultTurnTimeout  = 60 * time.Second
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// HandlerConfig tunes the HTTP surface.
type HandlerConfig struct {
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	MaxRequestBodySize int64
	TurnTimeout        time.Duration
	AllowedOrigin      string
	IsDevelopment      bool
}

// Handler serves assistant requests.
type Handler struct {
	service     *Service
	rateLimiter *RateLimiter
	log         ConversationLogger
	metrics     *metrics.Metrics
	cfg         HandlerConfig
}

// NewHandler creates a handler. A nil conversation logger disables conversation logs.
func NewHandler(service *Service, conversationLogger ConversationLogger, m *metrics.Metrics, cfg HandlerConfig) *Handler {
	if conversationLogger == nil {
		conversationLogger = noopConversationLogger{}
	}
	if cfg.RateLimitRequests <= 0 {
		cfg.RateLimitRequests = 20
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	return &Handler{
		service:     service,
		rateLimiter: NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		log:         conversationLogger,
		metrics:     m,
		cfg:         cfg,
	}
}

// RegisterRoutes registers the assistant routes. All of them require a family identity.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware())
		r.Route("/api/assistant", func(r chi.Router) {
			r.Post("/chat", h.HandleChat)
			r.Get("/quick-stats", h.HandleQuickStats)
			r.Get("/history", h.HandleHistory)
		})
		r.Get("/ws/assistant", h.HandleWebSocket)
	})
}

// Close releases handler resources.
func (h *Handler) Close() {
	h.rateLimiter.Stop()
	if err := h.log.Close(); err != nil {
		slog.Warn("failed to close conversation logger", "error", err)
	}
}

func (h *Handler) respond(w http.ResponseWriter, route string, status int, v interface{}) {
	h.metrics.ObserveHTTP(route, status)
	api.JSON(w, status, v)
}

func (h *Handler) fail(w http.ResponseWriter, route string, status int, message string) {
	h.metrics.ObserveHTTP(route, status)
	api.Error(w, status, message)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrFamilyNotFound):
		return http.StatusNotFound, "family not found"
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "assistant timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// HandleChat handles POST /api/assistant/chat.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	const route = "chat"
	familyID := identity.FamilyIDFromContext(r.Context())

	if !h.rateLimiter.Allow(familyID) {
		h.fail(w, route, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxRequestBodySize)
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, route, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.fail(w, route, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FamilyID = familyID
	req.MemberID = identity.MemberIDFromContext(r.Context())
	if req.SessionID == "" {
		req.SessionID = identity.SessionIDFromContext(r.Context())
	}
	reqID := chiMiddleware.GetReqID(r.Context())

	slog.Info("Assistant chat request",
		"family_id", req.FamilyID,
		"session_id", req.SessionID,
		"ip", identity.IPFromRequest(r),
		"message_length", len(req.Message),
	)

	resp, err := h.runTurn(r.Context(), req, "chat_http", reqID)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Assistant turn failed", "family_id", req.FamilyID, "error", err)
		}
		h.fail(w, route, status, msg)
		return
	}
	h.respond(w, route, http.StatusOK, resp)
}

// runTurn is shared by the HTTP and websocket transports.
func (h *Handler) runTurn(ctx context.Context, req ChatRequest, channel, requestID string) (*ChatResponse, error) {
	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		FamilyID:   req.FamilyID,
		SessionID:  req.SessionID,
		Channel:    channel,
		Direction:  "outbound",
		EventType:  "chat_user_message",
		ContentRaw: req.Message,
		Content:    cleanForReadability(req.Message),
		Meta: map[string]any{
			"request_id": requestID,
			"member_id":  req.MemberID,
		},
	})

	ctx, cancel := context.WithTimeout(ctx, h.cfg.TurnTimeout)
	defer cancel()

	resp, err := h.service.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	h.log.Log(ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		FamilyID:   req.FamilyID,
		SessionID:  resp.SessionID,
		Channel:    channel,
		Direction:  "inbound",
		EventType:  "chat_assistant_message",
		ContentRaw: resp.Message,
		Content:    cleanForReadability(resp.Message),
		Meta: map[string]any{
			"request_id": requestID,
			"intent":     resp.Intent,
			"language":   resp.Language,
			"confidence": resp.Confidence,
		},
	})
	return resp, nil
}

// HandleQuickStats handles GET /api/assistant/quick-stats.
func (h *Handler) HandleQuickStats(w http.ResponseWriter, r *http.Request) {
	const route = "quick_stats"
	stats, err := h.service.QuickStats(r.Context(), identity.FamilyIDFromContext(r.Context()))
	if err != nil {
		status, msg := statusFor(err)
		h.fail(w, route, status, msg)
		return
	}
	h.respond(w, route, http.StatusOK, stats)
}

// HandleHistory handles GET /api/assistant/history?limit=N.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const route = "history"
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.fail(w, route, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	familyID := identity.FamilyIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	msgs, err := h.service.History(r.Context(), familyID, sessionID, limit)
	if err != nil {
		slog.Error("Failed to load history", "family_id", familyID, "error", err)
		h.fail(w, route, http.StatusInternalServerError, "internal error")
		return
	}
	h.respond(w, route, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   msgs,
	})
}
