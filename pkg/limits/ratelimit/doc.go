// Package ratelimit provides the per-client request limiter and the
// inbound concurrency guard.
//
// # Fixed Window
//
// FixedWindow allows each client key RequestsPerMinute requests per 60
// second window. The window starts at the key's first request and resets
// hard when it ends; there is no sliding or refill in between.
//
//	limiter := ratelimit.NewFixedWindow(ratelimit.Config{Enabled: true, RequestsPerMinute: 60})
//	res := limiter.Check(ratelimit.ClientKey(r))
//	if !res.Allowed {
//	    // 429 with Retry-After: res.RetryAfter
//	}
//
// Keys live in memory until Sweep removes the idle ones; the maintenance
// scheduler runs it on a cron schedule.
//
// # Client Keys
//
// ClientKey uses the first X-Forwarded-For address, then X-Real-IP. Requests
// with neither share the "unknown" key and therefore one budget.
//
// # Concurrency
//
// ConcurrentLimiter is a non-blocking semaphore used to reject requests with
// 503 once server.max_concurrent requests are in flight.
package ratelimit
