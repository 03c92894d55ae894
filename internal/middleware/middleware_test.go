package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aora/backend/internal/backend"
	"github.com/aora/backend/internal/config"
	"github.com/aora/backend/internal/logging"
)

func TestSessionCopiesBearerSecret(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer", header: "Bearer abc123", want: "abc123"},
		{name: "lowercase scheme", header: "bearer  xyz ", want: "xyz"},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "missing", header: "", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got string
			handler := Session(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = backend.SessionFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if got != tc.want {
				t.Fatalf("expected session %q got %q", tc.want, got)
			}
		})
	}
}

func TestRequestLoggerPropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "req-42" {
		t.Fatalf("expected incoming request id on context, got %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != "req-42" {
		t.Fatalf("expected request id echoed, got %q", rec.Header().Get(HeaderRequestID))
	}
	if !strings.Contains(buf.String(), `"status":418`) {
		t.Fatalf("expected status in access log, got %s", buf.String())
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500 got %d", rec.Code)
	}
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Fatal("expected generated request id")
	}
}

func TestKeyedLimiterAllowsBurstPerKey(t *testing.T) {
	now := time.Date(2024, 4, 22, 12, 0, 0, 0, time.UTC)
	limiter := NewAuthRateLimiter(config.RateLimitConfig{Requests: 1, Window: time.Minute, Burst: 2})
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("login:1.2.3.4") || !limiter.Allow("login:1.2.3.4") {
		t.Fatal("expected burst to be allowed")
	}
	if limiter.Allow("login:1.2.3.4") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("login:5.6.7.8") {
		t.Fatal("expected other keys to keep their own bucket")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("login:1.2.3.4") {
		t.Fatal("expected a token to be refilled after the window")
	}
}

func TestKeyedLimiterDropsIdleKeys(t *testing.T) {
	now := time.Date(2024, 4, 22, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(10, time.Second, 1, time.Minute)
	limiter.now = func() time.Time { return now }

	limiter.Allow("a")
	limiter.Allow("b")
	if limiter.Len() != 2 {
		t.Fatalf("expected 2 buckets got %d", limiter.Len())
	}

	now = now.Add(2 * time.Minute)
	limiter.Allow("c")
	if limiter.Len() != 1 {
		t.Fatalf("expected idle buckets to be dropped, got %d", limiter.Len())
	}
}
