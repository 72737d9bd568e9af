package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ghproxy-hq/ghproxy/pkg/config"
)

// Collector owns every Prometheus metric the relay exports and the registry
// they live in.
//
// All Record methods are safe on a nil Collector and do nothing when metrics
// are disabled, so call sites never need to check.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics   *RequestMetrics
	cacheMetrics     *CacheMetrics
	rateLimitMetrics *RateLimitMetrics
	upstreamMetrics  *UpstreamMetrics
}

// NewCollector creates a collector with the specified configuration. If
// registry is nil a fresh registry is created; the process-wide default
// registry is never used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "ghproxy",
//		Subsystem: "relay",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Cache hits finish in microseconds, release archives take minutes.
		cfg.RequestDurationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 1, 2.5, 10, 60}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	c.rateLimitMetrics = NewRateLimitMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordRequest records a completed relay request.
//
// Parameters:
//   - outcome: one of the Outcome constants
//   - duration: time from arrival to the last body byte
func (c *Collector) RecordRequest(outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.requestMetrics.RecordRequest(outcome, duration)
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit() {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.RecordHit()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss() {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.RecordMiss()
}

// RecordCacheEviction records an entry leaving the cache for reason
// ("memory", "capacity", "expired").
func (c *Collector) RecordCacheEviction(reason string) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.RecordEviction(reason)
}

// RecordRateLimitDecision records the result of a per-client check.
func (c *Collector) RecordRateLimitDecision(allowed bool) {
	if !c.enabled() {
		return
	}

	c.rateLimitMetrics.RecordDecision(allowed)
}

// RecordRateLimitSweep records idle client keys removed by maintenance.
func (c *Collector) RecordRateLimitSweep(removed int) {
	if !c.enabled() {
		return
	}

	c.rateLimitMetrics.RecordSwept(removed)
}

// RecordUpstream records an upstream response relayed to the client.
//
// Parameters:
//   - provider: "github", "gitlab", "bitbucket" or "jsdelivr"
//   - statusCode: upstream HTTP status
//   - bytes: body bytes written to the client
func (c *Collector) RecordUpstream(provider string, statusCode int, bytes int64) {
	if !c.enabled() {
		return
	}

	c.upstreamMetrics.RecordResponse(provider, statusCode, bytes)
}

// RecordUpstreamError records a failed upstream exchange. kind is a short
// label such as "timeout" or "stream".
func (c *Collector) RecordUpstreamError(provider, kind string) {
	if !c.enabled() {
		return
	}

	c.upstreamMetrics.RecordError(provider, kind)
}

// RegisterCacheGauges exposes cache size through scrape-time callbacks.
// It must be called at most once per collector.
func (c *Collector) RegisterCacheGauges(entries, memoryBytes func() float64) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.registerGauges(entries, memoryBytes)
}

// RegisterRateLimitGauge exposes the number of tracked client keys.
// It must be called at most once per collector.
func (c *Collector) RegisterRateLimitGauge(keys func() float64) {
	if !c.enabled() {
		return
	}

	c.rateLimitMetrics.registerGauge(keys)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
