package ratelimit

import "time"

// DefaultWindow is the length of a fixed rate limit window.
const DefaultWindow = time.Minute

// Config configures a FixedWindow limiter.
type Config struct {
	// Enabled turns limiting on. A disabled limiter allows everything.
	Enabled bool

	// RequestsPerMinute is the number of requests a key may make per window.
	RequestsPerMinute int

	// Window is the window length. Zero means DefaultWindow.
	Window time.Duration
}

// CheckResult contains the result of a rate limit check.
type CheckResult struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// Reason explains why the request was rejected (if Allowed=false).
	Reason string

	// Limit is the configured limit value.
	Limit int64

	// Remaining is how many requests remain in the window.
	Remaining int64

	// Reset is when the limit window resets.
	Reset time.Time

	// RetryAfter suggests how long to wait before retrying.
	RetryAfter time.Duration
}

// window is the state of one client key.
type window struct {
	count int
	start time.Time
}
