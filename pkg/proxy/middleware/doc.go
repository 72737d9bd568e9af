// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server chains middleware in this order, outermost first:
//
//	handler = Recovery(RequestID(Logging(Concurrency(CORS(relay)))))
//
//  1. Recovery: turn panics into a 500 JSON error; re-panic http.ErrAbortHandler
//  2. RequestID: honour or generate X-Request-ID
//  3. Logging: one record per completed request, carrying the request ID
//  4. Concurrency: 503 once max_concurrent requests are in flight
//  5. CORS: answer preflight requests with 204
//
// # Request ID
//
// RequestIDMiddleware reuses a printable client-supplied X-Request-ID of at
// most 128 bytes and otherwise generates a UUID v4:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// The ID is stored with logging.WithRequestID, so every *Context log call made
// while serving the request includes it.
//
// # CORS Preflight
//
// Only OPTIONS requests carrying Access-Control-Request-Headers are answered:
//
//	HTTP/1.1 204 No Content
//	Access-Control-Allow-Origin: *
//	Access-Control-Allow-Methods: GET,POST,PUT,PATCH,TRACE,DELETE,HEAD,OPTIONS
//	Access-Control-Max-Age: 1728000
//
// All other requests pass through untouched; relayed responses keep the
// upstream's own headers.
package middleware
