// Package logging builds the process logger on log/slog.
//
// # Overview
//
//   - JSON or text output with a configurable minimum level
//   - Request-scoped fields (request_id, provider, rule) taken from the
//     context of every *Context logging call
//   - Optional masking of client addresses
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "6f1c...")
//	slog.InfoContext(ctx, "relayed", "status", 200) // includes request_id
//
// # Client Address Redaction
//
// With RedactClientAddresses set, the attributes client, client_key,
// remote_addr and forwarded_for are masked:
//
//   - 192.168.1.100:54321 → 192.*.*.*
//   - 2001:db8::1 → 2001:*
//   - 10.0.0.1, 172.16.0.1 → 10.*.*.*, 172.*.*.*
package logging
