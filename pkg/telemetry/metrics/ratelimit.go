package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ghproxy-hq/ghproxy/pkg/config"
)

// RateLimitMetrics tracks per-client rate limit decisions.
//
// Metrics:
//   - ghproxy_relay_ratelimit_decisions_total: Decisions by result (allowed, denied)
//   - ghproxy_relay_ratelimit_keys: Client keys currently tracked (gauge func)
//   - ghproxy_relay_ratelimit_swept_keys_total: Idle keys reclaimed by the sweep
type RateLimitMetrics struct {
	cfg      *config.MetricsConfig
	registry *prometheus.Registry

	decisionsTotal *prometheus.CounterVec
	sweptTotal     prometheus.Counter
}

// NewRateLimitMetrics creates and registers rate limit metrics.
func NewRateLimitMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RateLimitMetrics {
	rm := &RateLimitMetrics{
		cfg:      cfg,
		registry: registry,

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_decisions_total",
				Help:      "Total number of rate limit decisions by result",
			},
			[]string{"decision"},
		),

		sweptTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_swept_keys_total",
				Help:      "Total number of idle client keys reclaimed",
			},
		),
	}

	registry.MustRegister(
		rm.decisionsTotal,
		rm.sweptTotal,
	)

	return rm
}

// RecordDecision records one decision.
func (rm *RateLimitMetrics) RecordDecision(allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "denied"
	}
	rm.decisionsTotal.WithLabelValues(decision).Inc()
}

// RecordSwept records keys removed by a sweep.
func (rm *RateLimitMetrics) RecordSwept(n int) {
	if n > 0 {
		rm.sweptTotal.Add(float64(n))
	}
}

func (rm *RateLimitMetrics) registerGauge(keys func() float64) {
	rm.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: rm.cfg.Namespace,
			Subsystem: rm.cfg.Subsystem,
			Name:      "ratelimit_keys",
			Help:      "Current number of client keys tracked by the limiter",
		},
		keys,
	))
}
