package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, requests int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{Requests: requests, Window: time.Minute, CleanupInterval: time.Hour})
	t.Cleanup(rl.Stop)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowWithinWindow(t *testing.T) {
	rl, now := newTestLimiter(t, 2)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are independent")
	}

	if got := rl.RetryAfter("a"); got != time.Minute {
		t.Fatalf("RetryAfter = %v, want 1m", got)
	}

	*now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("new window should reset the counter")
	}

	if got := rl.GetMetrics(); got.LimitHits != 1 || got.ClientCount != 2 {
		t.Fatalf("metrics = %+v", got)
	}
}

func TestCleanupStaleEntries(t *testing.T) {
	rl, now := newTestLimiter(t, 5)
	rl.Allow("a")
	*now = now.Add(90 * time.Second)
	rl.Allow("b")
	*now = now.Add(45 * time.Second)

	if removed := rl.cleanupStaleEntries(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if rl.ActiveClients() != 1 {
		t.Fatalf("active = %d, want 1", rl.ActiveClients())
	}
}

func TestMiddlewareRejects(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	var limited int
	h := rl.Middleware(
		func(*http.Request) string { return "10.0.0.9" },
		func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/", nil))
	if second.Code != http.StatusTooManyRequests || limited != 1 {
		t.Fatalf("second status = %d, limited = %d", second.Code, limited)
	}
	if second.Header().Get("Retry-After") != "61" {
		t.Fatalf("Retry-After = %q", second.Header().Get("Retry-After"))
	}
}
