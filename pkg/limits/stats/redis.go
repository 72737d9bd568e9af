package stats

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// minuteLayout names per-minute bucket keys, e.g. prefix:minute:202401021504.
const minuteLayout = "200601021504"

// RedisRecorder counts decisions in Redis hashes so several instances can
// report into one place:
//
//	<prefix>:total              allowed/denied, never expires
//	<prefix>:minute:<yyyymmddhhmm>  allowed/denied, expires after ttl
//	<prefix>:method             <METHOD>:allowed / <METHOD>:denied
//	<prefix>:key:<client>       allowed/denied, expires after ttl (opt-in)
//
// All increments for one event go out in a single pipeline.
type RedisRecorder struct {
	rdb redis.UniversalClient

	prefix    string
	ttl       time.Duration
	trackKeys bool
}

// RedisOption configures a RedisRecorder.
type RedisOption func(*RedisRecorder)

// WithPrefix sets the key prefix. Surrounding colons are trimmed.
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisRecorder) {
		if p := strings.Trim(prefix, ":"); p != "" {
			r.prefix = p
		}
	}
}

// WithTTL sets the expiry of bucket and per-key hashes. Zero disables expiry.
func WithTTL(d time.Duration) RedisOption {
	return func(r *RedisRecorder) { r.ttl = d }
}

// WithRedisTrackKeys also counts decisions per client key.
func WithRedisTrackKeys(track bool) RedisOption {
	return func(r *RedisRecorder) { r.trackKeys = track }
}

// NewRedisRecorder creates a recorder writing through rdb.
func NewRedisRecorder(rdb redis.UniversalClient, opts ...RedisOption) *RedisRecorder {
	r := &RedisRecorder{
		rdb:    rdb,
		prefix: "ghproxy:ratelimit:stats",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record implements Recorder.
func (r *RedisRecorder) Record(ctx context.Context, ev Event) error {
	if r == nil || r.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := ev.field()

	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, r.prefix+":total", field, 1)

	bucket := r.prefix + ":minute:" + at.UTC().Format(minuteLayout)
	pipe.HIncrBy(ctx, bucket, field, 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, bucket, r.ttl)
	}

	if m := strings.TrimSpace(ev.Method); m != "" {
		pipe.HIncrBy(ctx, r.prefix+":method", m+":"+field, 1)
	}

	if r.trackKeys {
		if k := strings.TrimSpace(ev.Key); k != "" {
			key := r.prefix + ":key:" + k
			pipe.HIncrBy(ctx, key, field, 1)
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Ping checks connectivity. It backs the readiness check of the stats sink.
func (r *RedisRecorder) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
