// Package maintenance schedules periodic housekeeping for the proxy.
//
// Two jobs are registered at startup:
//
//   - ratelimit.sweep (rate_limit.sweep_schedule): forgets client keys whose
//     window closed more than rate_limit.idle_after ago
//   - cache.purge (cache.purge_schedule): drops expired cache entries so they
//     stop counting against the memory budget
//
// Neither job is needed for correctness. Expired entries are never served and
// a forgotten key gets a fresh window either way; the jobs bound memory.
package maintenance
