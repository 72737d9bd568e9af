package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ghproxy-hq/ghproxy/pkg/config"
)

// Request outcomes, one per terminal state of the relay pipeline.
const (
	OutcomeProxied     = "proxied"
	OutcomeCacheHit    = "cache_hit"
	OutcomeRedirect    = "redirect"
	OutcomeUnsupported = "unsupported"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// RequestMetrics tracks relayed requests.
//
// Metrics:
//   - ghproxy_relay_requests_total: Total requests by outcome
//   - ghproxy_relay_request_duration_seconds: Request duration by outcome
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of relay requests by outcome",
			},
			[]string{"outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of relay requests in seconds, including body streaming",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
	)

	return rm
}

// RecordRequest records one completed request.
func (rm *RequestMetrics) RecordRequest(outcome string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(outcome).Inc()
	rm.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
