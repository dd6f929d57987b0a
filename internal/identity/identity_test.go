package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewareInjectsIdentity(t *testing.T) {
	t.Parallel()

	var family, member, session string
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		family = FamilyIDFromContext(r.Context())
		member = MemberIDFromContext(r.Context())
		session = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/assistant/quick-stats?session_id=tab-2", nil)
	req.Header.Set(FamilyHeaderName, "fam-1")
	req.Header.Set(MemberHeaderName, "m-sara")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if family != "fam-1" || member != "m-sara" || session != "tab-2" {
		t.Errorf("identity = %q/%q/%q, want fam-1/m-sara/tab-2", family, member, session)
	}
}

func TestMiddlewareRejectsMissingFamily(t *testing.T) {
	t.Parallel()

	called := false
	h := Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	for _, family := range []string{"", "bad family id", "fam/1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if family != "" {
			req.Header.Set(FamilyHeaderName, family)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("family %q: status = %d, want 401", family, w.Code)
		}
	}
	if called {
		t.Error("next handler was called without a family")
	}
}

func TestSanitizeSessionID(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":            DefaultSessionIDValue,
		"  ":          DefaultSessionIDValue,
		"tab:1":       "tab:1",
		"has space":   DefaultSessionIDValue,
		" trimmed-1 ": "trimmed-1",
	}
	for in, want := range tests {
		if got := sanitizeSessionID(in); got != want {
			t.Errorf("sanitizeSessionID(%q) = %q, want %q", in, got, want)
		}
	}
}
