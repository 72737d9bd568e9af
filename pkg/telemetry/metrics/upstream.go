package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"ghproxy-hq/ghproxy/pkg/config"
)

// UpstreamMetrics tracks requests to git providers.
//
// Metrics:
//   - ghproxy_relay_upstream_requests_total: Responses by provider and status class (2xx, 3xx, ...)
//   - ghproxy_relay_upstream_errors_total: Failures by provider and kind (timeout, tls, transport, stream, ...)
//   - ghproxy_relay_upstream_response_bytes_total: Body bytes relayed by provider
type UpstreamMetrics struct {
	requests      *prometheus.CounterVec
	errors        *prometheus.CounterVec
	responseBytes *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream responses by provider and status class",
			},
			[]string{"provider", "status_class"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_errors_total",
				Help:      "Total number of failed upstream exchanges by provider and kind",
			},
			[]string{"provider", "kind"},
		),

		responseBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_response_bytes_total",
				Help:      "Total number of upstream body bytes relayed to clients",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(
		um.requests,
		um.errors,
		um.responseBytes,
	)

	return um
}

// RecordResponse records a relayed upstream response.
func (um *UpstreamMetrics) RecordResponse(provider string, statusCode int, bytes int64) {
	um.requests.WithLabelValues(provider, StatusClass(statusCode)).Inc()
	if bytes > 0 {
		um.responseBytes.WithLabelValues(provider).Add(float64(bytes))
	}
}

// RecordError records a failed upstream exchange.
func (um *UpstreamMetrics) RecordError(provider, kind string) {
	um.errors.WithLabelValues(provider, kind).Inc()
}

// StatusClass returns "2xx" for 200-299 and so on; anything outside 100-599
// is "other".
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}
