// Package handlers implements the relay pipeline behind every non-operational
// path of the ghproxy server.
//
// # Request Flow
//
//  1. Rate limit: the client key (X-Forwarded-For, X-Real-IP) is counted in a
//     fixed window. Over the limit the request ends with 429 and Retry-After.
//  2. Cache lookup: GET requests other than "q=" redirects are looked up by
//     raw path. A hit is served as application/octet-stream with X-Cache: HIT
//     and never reaches a provider.
//  3. Classify: the raw path is matched against the provider rules using the
//     current service flags.
//  4. Respond: a redirect gets 302, an unrecognized path gets the placeholder
//     body, anything else is fetched upstream and streamed back.
//  5. Cache population: a fully relayed 2xx GET body within the cache's
//     memory budget is stored under the raw path.
//
// Every step reports to the metrics collector; rate limit decisions also go
// to the stats recorder.
//
// # Usage
//
//	relay := handlers.NewRelayHandler(executor, flags,
//		handlers.WithCache(c),
//		handlers.WithRateLimiter(limiter),
//		handlers.WithMetrics(collector),
//		handlers.WithStats(recorder),
//	)
package handlers
