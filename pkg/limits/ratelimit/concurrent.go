package ratelimit

import "sync/atomic"

// ConcurrentLimiter caps the number of requests served at the same time.
// It is a counting semaphore that never blocks: Acquire either takes a slot
// or fails immediately. A limit of zero or less means unlimited.
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrentLimiter creates a limiter allowing limit simultaneous holders.
//
//	limiter := NewConcurrentLimiter(50)
//	if limiter.Acquire() {
//	    defer limiter.Release()
//	    // serve
//	}
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire takes a slot and reports whether it succeeded. Every successful
// Acquire must be paired with exactly one Release.
func (cl *ConcurrentLimiter) Acquire() bool {
	n := cl.current.Add(1)
	if cl.limit > 0 && n > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot taken by Acquire.
func (cl *ConcurrentLimiter) Release() {
	cl.current.Add(-1)
}

// Current returns the number of slots in use.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// Limit returns the configured limit (zero or less is unlimited).
func (cl *ConcurrentLimiter) Limit() int64 {
	return cl.limit
}

// Remaining returns the number of free slots, or -1 when unlimited.
func (cl *ConcurrentLimiter) Remaining() int64 {
	if cl.limit <= 0 {
		return -1
	}
	if r := cl.limit - cl.current.Load(); r > 0 {
		return r
	}
	return 0
}
