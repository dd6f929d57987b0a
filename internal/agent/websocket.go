package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/chorechat/internal/identity"
	"github.com/coder/websocket"
)

const wsWriteTimeout = 10 * time.Second

// HandleWebSocket runs chat turns over /ws/assistant. Each {"type":"chat"}
// frame gets one {"type":"response"} frame back, in order.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	familyID := identity.FamilyIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	memberID := identity.MemberIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "family_id", familyID, "session_id", sessionID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		h.fail(w, "ws", http.StatusForbidden, "origin not allowed")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "family_id", familyID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "family_id", familyID)
		}
	}()
	h.metrics.ObserveHTTP("ws", http.StatusSwitchingProtocols)

	ctx := r.Context()
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "family_id", familyID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "family_id", familyID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.writeJSON(ctx, ws, wsMessage{Type: "error", Error: "invalid frame"}); err != nil {
				return
			}
			continue
		}

		var reply wsMessage
		switch msg.Type {
		case "chat":
			reply = h.wsTurn(ctx, ChatRequest{
				Message:       msg.Message,
				SessionID:     sessionID,
				TargetDate:    msg.TargetDate,
				DefaultPoints: msg.DefaultPoints,
				FamilyID:      familyID,
				MemberID:      memberID,
			})
		case "ping":
			reply = wsMessage{Type: "pong"}
		default:
			reply = wsMessage{Type: "error", Error: "unknown message type"}
		}

		if err := h.writeJSON(ctx, ws, reply); err != nil {
			slog.Debug("Failed to write websocket frame", "error", err, "family_id", familyID)
			return
		}
	}
}

func (h *Handler) wsTurn(ctx context.Context, req ChatRequest) wsMessage {
	if !h.rateLimiter.Allow(req.FamilyID) {
		return wsMessage{Type: "error", Error: "rate limit exceeded"}
	}
	resp, err := h.runTurn(ctx, req, "chat_ws", "")
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Assistant turn failed", "family_id", req.FamilyID, "error", err)
		}
		return wsMessage{Type: "error", Error: msg}
	}
	return wsMessage{Type: "response", Response: resp}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.cfg.IsDevelopment {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.cfg.AllowedOrigin == "" || h.cfg.AllowedOrigin == "*" {
		return true
	}
	if origin == h.cfg.AllowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.cfg.AllowedOrigin)
	return false
}

func (h *Handler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
