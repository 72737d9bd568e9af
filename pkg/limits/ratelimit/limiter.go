package ratelimit

import (
	"sync"
	"time"
)

// FixedWindow limits each client key to a number of requests per fixed
// window. A window opens at a key's first request and closes a full window
// length later; the next request after that opens a fresh window with a
// count of one.
//
// Denied requests do not count. Checks for one key are serialized; keys do
// not affect each other.
type FixedWindow struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) { l.now = now }
}

// NewFixedWindow creates a limiter. A non-positive request budget disables it.
func NewFixedWindow(cfg Config, opts ...Option) *FixedWindow {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.Enabled = false
	}
	l := &FixedWindow{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enabled reports whether the limiter rejects anything.
func (l *FixedWindow) Enabled() bool {
	return l.cfg.Enabled
}

// Allow reports whether a request for key is permitted, counting it if so.
func (l *FixedWindow) Allow(key string) bool {
	return l.Check(key).Allowed
}

// Check counts a request for key and returns the decision with the
// remaining budget and the time the current window resets.
func (l *FixedWindow) Check(key string) CheckResult {
	limit := int64(l.cfg.RequestsPerMinute)
	if !l.cfg.Enabled {
		return CheckResult{Allowed: true, Limit: limit, Remaining: limit}
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		if !ok {
			w = &window{}
			l.windows[key] = w
		}
		w.count = 1
		w.start = now
		return CheckResult{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - 1,
			Reset:     now.Add(l.cfg.Window),
		}
	}

	reset := w.start.Add(l.cfg.Window)
	if w.count >= l.cfg.RequestsPerMinute {
		retry := reset.Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return CheckResult{
			Allowed:    false,
			Reason:     "rate limit exceeded",
			Limit:      limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: retry,
		}
	}

	w.count++
	return CheckResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - int64(w.count),
		Reset:     reset,
	}
}

// Sweep forgets keys whose window closed more than idleAfter ago and
// returns how many were removed. A forgotten key starts a fresh window on
// its next request, which is what it would get anyway.
func (l *FixedWindow) Sweep(idleAfter time.Duration) int {
	if idleAfter < 0 {
		idleAfter = 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.cfg.Window+idleAfter {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Keys returns the number of tracked client keys.
func (l *FixedWindow) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
