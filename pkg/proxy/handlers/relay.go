package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"ghproxy-hq/ghproxy/pkg/cache"
	"ghproxy-hq/ghproxy/pkg/limits/ratelimit"
	"ghproxy-hq/ghproxy/pkg/limits/stats"
	"ghproxy-hq/ghproxy/pkg/proxy"
	"ghproxy-hq/ghproxy/pkg/routing"
	"ghproxy-hq/ghproxy/pkg/telemetry/logging"
	"ghproxy-hq/ghproxy/pkg/telemetry/metrics"
)

// PlaceholderBody is returned with 200 for paths no rule recognizes.
const PlaceholderBody = "Proxy response placeholder"

// DefaultStatsTimeout bounds each rate limit statistics write.
const DefaultStatsTimeout = 50 * time.Millisecond

// RelayHandler is the request pipeline: rate limit, cache lookup, classify,
// then redirect, placeholder or proxy.
type RelayHandler struct {
	executor *proxy.Executor
	flags    *routing.FlagStore
	cache    *cache.Cache
	limiter  *ratelimit.FixedWindow
	metrics  *metrics.Collector
	stats    stats.Recorder
	logger   *slog.Logger

	statsTimeout time.Duration
}

// RelayOption customizes a RelayHandler.
type RelayOption func(*RelayHandler)

// WithCache enables response caching for GET requests.
func WithCache(c *cache.Cache) RelayOption {
	return func(h *RelayHandler) {
		h.cache = c
	}
}

// WithRateLimiter enables per-client rate limiting.
func WithRateLimiter(l *ratelimit.FixedWindow) RelayOption {
	return func(h *RelayHandler) {
		h.limiter = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) RelayOption {
	return func(h *RelayHandler) {
		h.metrics = m
	}
}

// WithStats sets the recorder that receives every rate limit decision.
func WithStats(r stats.Recorder) RelayOption {
	return func(h *RelayHandler) {
		if r != nil {
			h.stats = r
		}
	}
}

// WithStatsTimeout overrides DefaultStatsTimeout.
func WithStatsTimeout(d time.Duration) RelayOption {
	return func(h *RelayHandler) {
		if d > 0 {
			h.statsTimeout = d
		}
	}
}

// WithLogger sets the handler's logger.
func WithLogger(logger *slog.Logger) RelayOption {
	return func(h *RelayHandler) {
		h.logger = logger
	}
}

// NewRelayHandler creates the pipeline. Caching and rate limiting are off
// unless the matching options are given.
func NewRelayHandler(executor *proxy.Executor, flags *routing.FlagStore, opts ...RelayOption) *RelayHandler {
	h := &RelayHandler{
		executor: executor,
		flags:    flags,
		stats:    stats.Nop{},
		logger:   slog.Default().With("component", "handlers.relay"),

		statsTimeout: DefaultStatsTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RawPath returns the request target as received, path and query, without
// the leading "/". It is both the classifier input and the cache key.
//
// The unparsed request URI is used so that embedded "https://" URLs and
// percent-escapes reach the upstream exactly as the client wrote them.
func RawPath(r *http.Request) string {
	uri := r.RequestURI
	if !strings.HasPrefix(uri, "/") {
		uri = r.URL.RequestURI()
	}
	return strings.TrimPrefix(uri, "/")
}

// ServeHTTP implements http.Handler.
func (h *RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := metrics.OutcomeError
	defer func() {
		h.metrics.RecordRequest(outcome, time.Since(start))
	}()

	outcome = h.relay(w, r)
}

func (h *RelayHandler) relay(w http.ResponseWriter, r *http.Request) string {
	ctx := r.Context()
	raw := RawPath(r)

	if !h.admit(w, r) {
		return metrics.OutcomeRateLimited
	}

	useCache := r.Method == http.MethodGet && !routing.IsQuery(raw) &&
		h.cache != nil && h.cache.Enabled()

	if useCache {
		if body, ok := h.cache.Get(raw); ok {
			h.metrics.RecordCacheHit()
			h.logger.DebugContext(ctx, "served from cache", "path", raw, "bytes", len(body))
			writeCached(w, body)
			return metrics.OutcomeCacheHit
		}
		h.metrics.RecordCacheMiss()
	}

	decision := routing.Classify(raw, h.flags.Load())
	ctx = logging.WithRule(ctx, decision.Rule)
	if decision.Provider != routing.ProviderNone {
		ctx = logging.WithProvider(ctx, string(decision.Provider))
	}
	r = r.WithContext(ctx)

	switch decision.Kind {
	case routing.Redirect:
		location := decision.Location()
		if !httpguts.ValidHeaderFieldValue(location) {
			h.logger.InfoContext(ctx, "rejected redirect location", "path", raw)
			h.writeError(w, r, proxy.NewInvalidRequestError("redirect location contains invalid characters", nil))
			return metrics.OutcomeError
		}
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusFound)
		return metrics.OutcomeRedirect

	case routing.Unsupported:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(PlaceholderBody))
		return metrics.OutcomeUnsupported
	}

	return h.forward(w, r, raw, decision, useCache)
}

// admit applies the per-client limit and writes the 429 when it denies.
func (h *RelayHandler) admit(w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil || !h.limiter.Enabled() {
		return true
	}

	ctx := r.Context()
	key := ratelimit.ClientKey(r)
	res := h.limiter.Check(key)

	h.metrics.RecordRateLimitDecision(res.Allowed)
	h.recordDecision(ctx, stats.Event{Key: key, Allowed: res.Allowed, Method: r.Method})

	if res.Allowed {
		return true
	}

	h.logger.InfoContext(ctx, "rate limit exceeded",
		"client_key", key,
		"limit", res.Limit,
		"retry_after", res.RetryAfter,
	)

	header := w.Header()
	header.Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
	header.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	header.Set("X-RateLimit-Remaining", "0")
	header.Set("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
	h.writeError(w, r, proxy.NewRateLimitedError())
	return false
}

// forward fetches the decision's target and, for cacheable GETs, stores the
// completed body under raw.
func (h *RelayHandler) forward(w http.ResponseWriter, r *http.Request, raw string, decision routing.Decision, useCache bool) string {
	ctx := r.Context()
	provider := string(decision.Provider)

	var capture *proxy.Capture
	if useCache {
		capture = proxy.NewCapture(h.cache.MaxMemory())
	}

	res, err := h.executor.Execute(w, r, decision.Target, capture)
	if err != nil {
		reason := proxy.FailureReason(err)
		h.metrics.RecordUpstreamError(provider, reason)

		if res.HeaderWritten {
			h.logger.WarnContext(ctx, "upstream stream aborted",
				"target", decision.Target,
				"status", res.StatusCode,
				"bytes", res.Bytes,
				"reason", reason,
				"error", err,
			)
			panic(http.ErrAbortHandler)
		}

		h.logger.WarnContext(ctx, "upstream request failed",
			"target", decision.Target,
			"reason", reason,
			"error", err,
		)
		h.writeError(w, r, err)
		return metrics.OutcomeError
	}

	h.metrics.RecordUpstream(provider, res.StatusCode, res.Bytes)

	if capture != nil {
		if body, ok := capture.Bytes(); ok {
			if !h.cache.Set(raw, body) {
				h.logger.DebugContext(ctx, "response not cached", "path", raw, "bytes", len(body))
			}
		} else if capture.Overflowed() {
			h.logger.DebugContext(ctx, "response too large to cache", "path", raw)
		}
	}

	return metrics.OutcomeProxied
}

// recordDecision writes ev to the stats backend, giving up after statsTimeout
// so an unreachable backend only costs the request that much.
func (h *RelayHandler) recordDecision(ctx context.Context, ev stats.Event) {
	rctx, cancel := context.WithTimeout(ctx, h.statsTimeout)
	defer cancel()

	if err := h.stats.Record(rctx, ev); err != nil {
		h.logger.DebugContext(ctx, "failed to record rate limit decision", "error", err)
	}
}

func (h *RelayHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if werr := proxy.WriteError(w, err); werr != nil {
		h.logger.ErrorContext(r.Context(), "failed to write error response", "error", werr)
	}
}

func writeCached(w http.ResponseWriter, body []byte) {
	header := w.Header()
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Length", strconv.Itoa(len(body)))
	header.Set("X-Cache", "HIT")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
