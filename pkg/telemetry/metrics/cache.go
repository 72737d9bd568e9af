package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ghproxy-hq/ghproxy/pkg/config"
)

// CacheMetrics tracks the response cache.
//
// Metrics:
//   - ghproxy_relay_cache_hits_total: Total cache hits
//   - ghproxy_relay_cache_misses_total: Total cache misses
//   - ghproxy_relay_cache_evictions_total: Evictions by reason (memory, capacity, expired)
//   - ghproxy_relay_cache_entries: Current number of entries (gauge func)
//   - ghproxy_relay_cache_memory_bytes: Current payload bytes (gauge func)
type CacheMetrics struct {
	cfg      *config.MetricsConfig
	registry *prometheus.Registry

	// Cache hit counter
	hitsTotal prometheus.Counter

	// Cache miss counter
	missesTotal prometheus.Counter

	// Cache evictions counter
	evictionsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		cfg:      cfg,
		registry: registry,

		hitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),

		missesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache evictions by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.evictionsTotal,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit() {
	cm.hitsTotal.Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss() {
	cm.missesTotal.Inc()
}

// RecordEviction records an eviction.
func (cm *CacheMetrics) RecordEviction(reason string) {
	cm.evictionsTotal.WithLabelValues(reason).Inc()
}

// registerGauges exposes the cache's current size, read at scrape time.
func (cm *CacheMetrics) registerGauges(entries, memoryBytes func() float64) {
	cm.registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: cm.cfg.Namespace,
				Subsystem: cm.cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in the cache",
			},
			entries,
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: cm.cfg.Namespace,
				Subsystem: cm.cfg.Subsystem,
				Name:      "cache_memory_bytes",
				Help:      "Current payload bytes held by the cache",
			},
			memoryBytes,
		),
	)
}
