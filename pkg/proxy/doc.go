// Package proxy fetches upstream provider content and streams it to clients.
//
// The Executor is the outbound half of the relay. Given a rewritten target
// such as "github.com/owner/repo/raw/main/README.md" it issues the request
// with the inbound method, headers (minus Host) and body, then relays the
// upstream status, headers and body without buffering either side. Release
// archives can be arbitrarily large, so nothing is materialized in memory
// unless a cache capture is requested.
//
// # Subpackages
//
//   - handlers: the request pipeline (rate limit, cache, classify, execute)
//   - middleware: request ID, logging, recovery, concurrency and CORS preflight
//   - types: JSON error body
//
// # Timeouts
//
// ExecutorConfig.Timeout bounds dialing, the TLS handshake and the wait for
// response headers. A body that takes minutes to stream is not cut off.
// Client disconnects cancel the outbound request through the inbound context.
//
// # Cache Capture
//
// A Capture tees the streamed body into a buffer capped at the cache's memory
// budget. Exceeding the cap, or a declared Content-Length above it, drops the
// buffer and leaves the client stream untouched. The capture is completed only
// when the whole body was relayed, the status is 2xx and the body was not
// content-encoded:
//
//	capture := proxy.NewCapture(c.MaxMemory())
//	res, err := executor.Execute(w, r, decision.Target, capture)
//	if err == nil {
//	    if body, ok := capture.Bytes(); ok {
//	        c.Set(key, body)
//	    }
//	}
//
// # Errors
//
// Failures the relay answers itself are *Error values with a Kind that
// selects the status code and JSON body:
//
//	InvalidRequest       400  {"error":"Invalid request","message":"Invalid request: ..."}
//	RateLimited          429  {"error":"Rate limit exceeded","message":"Rate limit error: ..."}
//	UpstreamUnavailable  503  {"error":"Service unavailable","message":"Upstream error: ..."}
//	CacheFailure         500  {"error":"Cache error","message":"Cache error: ..."}
//	Internal             500  {"error":"Internal error","message":"Internal error: ..."}
//
// A failure after the upstream header was relayed cannot change the status;
// Execute reports it with Result.HeaderWritten set and the handler aborts the
// connection with http.ErrAbortHandler.
package proxy
