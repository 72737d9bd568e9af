package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ghproxy-hq/ghproxy/pkg/config"
)

// Event is one rate limit decision.
type Event struct {
	// Key is the client key the decision was made for.
	Key string

	// Allowed is the decision.
	Allowed bool

	// Method is the HTTP method of the request.
	Method string

	// At is when the decision was made. Zero means now.
	At time.Time
}

// field returns the hash field an event increments.
func (e Event) field() string {
	if e.Allowed {
		return "allowed"
	}
	return "denied"
}

// Recorder stores rate limit decisions.
//
// Recording is best-effort: callers log errors and carry on. Recorders only
// count decisions; they never hold limiter state.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Counters is a pair of decision totals.
type Counters struct {
	Allowed int64
	Denied  int64
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
	} else {
		c.Denied++
	}
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

// NewFromConfig builds the recorder selected by cfg.Backend. The returned
// close function releases any connection and is never nil.
func NewFromConfig(cfg *config.StatsConfig) (Recorder, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "", "none":
		return Nop{}, noop, nil
	case "memory":
		return NewMemoryRecorder(WithTrackKeys(cfg.TrackKeys)), noop, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rec := NewRedisRecorder(rdb,
			WithPrefix(cfg.Redis.Prefix),
			WithTTL(cfg.Redis.TTL),
			WithRedisTrackKeys(cfg.TrackKeys),
		)
		return rec, rdb.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown stats backend %q", cfg.Backend)
	}
}
