// Package server provides the ghproxy HTTP server and its handler chain.
//
// # Routing
//
// Operational endpoints (health, readiness, version, metrics) are matched by
// exact path. Every other request goes to the relay handler, whose path is
// an embedded provider URL such as /https://github.com/owner/repo/raw/main/f.
//
// # Middleware
//
//	recovery -> request ID -> logging -> dispatch
//	                                      |- exact route
//	                                      '- concurrency -> CORS preflight -> relay
//
// # Basic Usage
//
//	srv := server.NewServer(&cfg.Server, relay,
//		server.WithRoute(cfg.Telemetry.Health.LivenessPath, handlers.LivenessHandler),
//		server.WithRoute(cfg.Telemetry.Metrics.Path, collector.Handler()),
//		server.WithConcurrencyLimiter(ratelimit.NewConcurrentLimiter(cfg.Server.MaxConcurrent)),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start blocks until ctx is cancelled, then drains in-flight requests for up
// to ServerConfig.ShutdownTimeout.
package server
