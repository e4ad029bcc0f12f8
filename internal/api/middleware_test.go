package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"biketour-planner/internal/platform/obs"
)

func TestLoggingMiddlewareTagsRequestID(t *testing.T) {
	var seen string
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(obs.RequestIDKey).(string)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("handler context has no request id")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Fatalf("response id = %q, context id = %q", got, seen)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("client id not kept: context=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}
}
