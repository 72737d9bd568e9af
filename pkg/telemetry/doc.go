// Package telemetry groups the observability packages of the ghproxy relay.
//
// # Components
//
//   - logging: slog setup, request-scoped fields and client address redaction
//   - metrics: Prometheus collector on a private registry
//   - health: liveness, readiness and version endpoints
//
// All three are configured from config.TelemetryConfig and wired together
// by the run command.
package telemetry
