package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstThenRejects(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should be within burst", i)
		}
	}
	ok, wait := rl.Allow("10.0.0.1")
	if ok {
		t.Fatal("expected third request to be limited")
	}
	if wait <= 0 || wait > time.Second {
		t.Fatalf("expected wait within one second, got %v", wait)
	}
	if ok, _ := rl.Allow("10.0.0.2"); !ok {
		t.Fatal("other clients must have their own bucket")
	}

	fixed = fixed.Add(time.Second)
	if ok, _ := rl.Allow("10.0.0.1"); !ok {
		t.Fatal("expected a token after one second")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }
	rl.Allow("10.0.0.1")

	fixed = fixed.Add(11 * time.Minute)
	if removed := rl.Sweep(); removed != 1 {
		t.Fatalf("expected 1 idle client removed, got %d", removed)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	called := 0
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.WriteHeader(http.StatusCreated)
	}))

	for i, want := range []int{http.StatusCreated, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
	if called != 1 {
		t.Fatalf("expected handler to run once, ran %d times", called)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:443"
	if got := clientIP(req); got != "198.51.100.4" {
		t.Fatalf("expected host only, got %q", got)
	}
	req.RemoteAddr = "198.51.100.4"
	if got := clientIP(req); got != "198.51.100.4" {
		t.Fatalf("expected raw address, got %q", got)
	}
}
