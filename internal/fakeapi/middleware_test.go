package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging_Passthrough(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	h := middleware.RequestID(Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/services?q=secret", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rec.Code)
	}
	if logs.Len() != 1 {
		t.Fatalf("want one log line, got %d", logs.Len())
	}
	f := logs.All()[0].ContextMap()
	if f["path"] != "/api/services" || f["status"] != int64(http.StatusTeapot) || f["request_id"] != "rid-1" {
		t.Fatalf("unexpected fields: %v", f)
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	t.Parallel()

	h := Recover(zaptest.NewLogger(t))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("oh no")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["message"] != "internal" {
		t.Fatalf("body=%q err=%v", rec.Body.String(), err)
	}
}

func TestRecover_NoPanicPassThrough(t *testing.T) {
	t.Parallel()

	h := Recover(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, msg{"ok": true})
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d", rec.Code)
	}
}

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := UserIDFromCtx(req.Context()); ok {
		t.Fatalf("empty context must not carry a user")
	}
	id, ok := UserIDFromCtx(WithUserID(req.Context(), 42))
	if !ok || id != 42 {
		t.Fatalf("got %d, %v", id, ok)
	}
}

func TestHandler_ErrorBodies(t *testing.T) {
	t.Parallel()

	s, err := New(Options{Logger: zaptest.NewLogger(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := s.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		status int
		key    string
		text   string
	}{
		{"unknown path", http.MethodGet, "/api/nope", http.StatusNotFound, "message", "Resource not found"},
		{"outside api", http.MethodGet, "/", http.StatusNotFound, "message", "Resource not found"},
		{"wrong method", http.MethodPatch, "/api/services", http.StatusMethodNotAllowed, "message", "The method is not allowed for the requested URL."},
		{"no token", http.MethodGet, "/api/service-requests", http.StatusUnauthorized, "msg", "Missing Authorization Header"},
		{"nested no token", http.MethodGet, "/api/admin/dashboard", http.StatusUnauthorized, "msg", "Missing Authorization Header"},
		{"bad token", http.MethodGet, "/api/notifications", http.StatusUnauthorized, "msg", "Invalid token"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		if tt.name == "bad token" {
			req.Header.Set("Authorization", "Bearer junk")
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != tt.status {
			t.Fatalf("%s: status=%d, want %d", tt.name, rec.Code, tt.status)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body[tt.key] != tt.text {
			t.Fatalf("%s: body=%q err=%v", tt.name, rec.Body.String(), err)
		}
	}

	// the catalog stays public
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("public catalog: status=%d", rec.Code)
	}
	if got := s.Calls("/api/services"); got != 1 {
		t.Fatalf("calls=%d", got)
	}
}
