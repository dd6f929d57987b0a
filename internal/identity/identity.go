// Package identity extracts the family, member and chat session a request acts for.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"
)

const (
	FamilyHeaderName      = "X-Family-ID"
	MemberHeaderName      = "X-Member-ID"
	SessionHeaderName     = "X-Session-ID"
	DefaultSessionIDValue = "default"
)

type contextKey int

const (
	familyIDKey contextKey = iota
	memberIDKey
	sessionIDKey
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// FamilyIDFromContext extracts the family ID from the request context.
func FamilyIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(familyIDKey).(string); ok {
		return v
	}
	return ""
}

// MemberIDFromContext extracts the acting member ID from the request context.
func MemberIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(memberIDKey).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext extracts the chat session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return DefaultSessionIDValue
}

// WithFamily returns ctx carrying the given identity. Used by the middleware and by tests.
func WithFamily(ctx context.Context, familyID, memberID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, familyIDKey, familyID)
	ctx = context.WithValue(ctx, memberIDKey, memberID)
	return context.WithValue(ctx, sessionIDKey, sanitizeSessionID(sessionID))
}

func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if !idPattern.MatchString(id) {
		return ""
	}
	return id
}

func sanitizeSessionID(id string) string {
	if id = sanitizeID(id); id == "" {
		return DefaultSessionIDValue
	}
	return id
}

func headerOrQuery(r *http.Request, header, param string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	return r.URL.Query().Get(param)
}

// Middleware injects the family, member and session of the request. Requests
// without a valid family id are rejected; browsers opening a websocket cannot
// set headers, so every value may also come from the query string.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			familyID := sanitizeID(headerOrQuery(r, FamilyHeaderName, "family_id"))
			if familyID == "" {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"missing or invalid family id"}`, http.StatusUnauthorized)
				return
			}
			memberID := sanitizeID(headerOrQuery(r, MemberHeaderName, "member_id"))
			sessionID := headerOrQuery(r, SessionHeaderName, "session_id")

			ctx := WithFamily(r.Context(), familyID, memberID, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IPFromRequest returns a normalized remote IP for request tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
