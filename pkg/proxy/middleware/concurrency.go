package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"ghproxy-hq/ghproxy/pkg/limits/ratelimit"
	"ghproxy-hq/ghproxy/pkg/proxy"
	"ghproxy-hq/ghproxy/pkg/proxy/types"
)

// ConcurrencyMiddleware answers 503 when the limiter has no free slot.
// A nil limiter or one with a non-positive limit admits everything.
//
// Example usage:
//
//	handler = ConcurrencyMiddleware(ratelimit.NewConcurrentLimiter(512))(handler)
func ConcurrencyMiddleware(limiter *ratelimit.ConcurrentLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Acquire() {
				slog.WarnContext(r.Context(), "concurrency limit reached",
					"limit", limiter.Limit(),
				)
				w.Header().Set("Retry-After", "1")
				_ = proxy.WriteErrorResponse(w, http.StatusServiceUnavailable, types.NewErrorResponse(
					types.ErrorTooManyConcurrent,
					fmt.Sprintf("Too many concurrent requests: limit %d", limiter.Limit()),
				))
				return
			}
			defer limiter.Release()

			next.ServeHTTP(w, r)
		})
	}
}
