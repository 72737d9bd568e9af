// Package health provides the liveness, readiness and version endpoints of
// the ghproxy relay.
//
// # Endpoints
//
//   - /health: liveness, 200 whenever the process is serving
//   - /ready: readiness, 200 when every component check passes, else 503
//   - /version: build information
//
// Paths come from config.HealthConfig.
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck(health.CheckCache, health.IntegrityCheck(c.Check))
//	checker.RegisterCheck(health.CheckStats, health.PingCheck(redisRecorder))
//
//	handlers := checker.CreateHandlers(health.NewVersionInfo(version, commit, buildTime))
//
// # Liveness vs Readiness
//
// Liveness never runs component checks, so a slow Redis never gets the
// process restarted. Readiness runs all checks concurrently, each bounded by
// the check timeout, and reports per-component results.
package health
