// Package metrics provides Prometheus metrics for the ghproxy relay.
//
// # Metrics Categories
//
//   - Request: count and duration by outcome (proxied, cache_hit, redirect,
//     unsupported, rate_limited, error)
//   - Cache: hits, misses, evictions by reason, current entries and bytes
//   - Rate limit: decisions, tracked client keys, keys reclaimed by sweeps
//   - Upstream: responses by provider and status class, failures by kind,
//     relayed body bytes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RegisterCacheGauges(
//		func() float64 { return float64(c.EntryCount()) },
//		func() float64 { return float64(c.MemoryUsage()) },
//	)
//
//	collector.RecordRequest(metrics.OutcomeProxied, time.Since(start))
//	collector.RecordUpstream("github", 200, n)
//
// # Prometheus Endpoint
//
// The collector uses its own registry. Handler serves it:
//
//	# HELP ghproxy_relay_requests_total Total number of relay requests by outcome
//	# TYPE ghproxy_relay_requests_total counter
//	ghproxy_relay_requests_total{outcome="cache_hit"} 1234
//
// # Cardinality
//
// Every label is drawn from a fixed set: outcomes, provider names, status
// classes and failure kinds. Request paths and client addresses are never
// used as labels.
package metrics
