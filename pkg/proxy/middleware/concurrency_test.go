package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ghproxy-hq/ghproxy/pkg/limits/ratelimit"
)

func TestConcurrencyMiddleware(t *testing.T) {
	t.Run("rejects over the limit", func(t *testing.T) {
		limiter := ratelimit.NewConcurrentLimiter(1)
		if !limiter.Acquire() {
			t.Fatal("Acquire() = false on an idle limiter")
		}
		defer limiter.Release()

		called := false
		wrapped := ConcurrencyMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
		if called {
			t.Error("handler ran over the limit")
		}
		if w.Header().Get("Retry-After") != "1" {
			t.Errorf("Retry-After = %q, want 1", w.Header().Get("Retry-After"))
		}
	})

	t.Run("releases the slot", func(t *testing.T) {
		limiter := ratelimit.NewConcurrentLimiter(1)
		wrapped := ConcurrencyMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Current() != 1 {
				t.Errorf("Current() = %d inside handler, want 1", limiter.Current())
			}
		}))

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("request %d status = %d, want 200", i, w.Code)
			}
		}
		if limiter.Current() != 0 {
			t.Errorf("Current() = %d after requests, want 0", limiter.Current())
		}
	})

	t.Run("nil limiter admits everything", func(t *testing.T) {
		wrapped := ConcurrencyMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
