package stats

import (
	"context"
	"sync"
)

// MemoryRecorder keeps decision counters in process memory.
// Nothing expires, so per-key tracking grows with the number of clients.
type MemoryRecorder struct {
	mu       sync.Mutex
	total    Counters
	byMethod map[string]Counters
	byKey    map[string]Counters

	trackKeys bool
}

// MemoryOption configures a MemoryRecorder.
type MemoryOption func(*MemoryRecorder)

// WithTrackKeys also counts decisions per client key.
func WithTrackKeys(track bool) MemoryOption {
	return func(r *MemoryRecorder) { r.trackKeys = track }
}

// NewMemoryRecorder creates an empty recorder.
func NewMemoryRecorder(opts ...MemoryOption) *MemoryRecorder {
	r := &MemoryRecorder{
		byMethod: make(map[string]Counters),
		byKey:    make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements Recorder.
func (r *MemoryRecorder) Record(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.total.add(ev.Allowed)

	if ev.Method != "" {
		c := r.byMethod[ev.Method]
		c.add(ev.Allowed)
		r.byMethod[ev.Method] = c
	}

	if r.trackKeys && ev.Key != "" {
		c := r.byKey[ev.Key]
		c.add(ev.Allowed)
		r.byKey[ev.Key] = c
	}
	return nil
}

// Total returns the overall counters.
func (r *MemoryRecorder) Total() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

// ByMethod returns a copy of the per-method counters.
func (r *MemoryRecorder) ByMethod() map[string]Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyCounters(r.byMethod)
}

// ByKey returns a copy of the per-key counters. It is empty unless key
// tracking is enabled.
func (r *MemoryRecorder) ByKey() map[string]Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyCounters(r.byKey)
}

func copyCounters(m map[string]Counters) map[string]Counters {
	out := make(map[string]Counters, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
