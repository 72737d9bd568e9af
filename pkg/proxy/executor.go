package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ExecutorConfig configures outbound requests to providers.
type ExecutorConfig struct {
	// Timeout bounds dialing, the TLS handshake, the wait for response
	// headers and every wait for the next body bytes. The total time spent
	// streaming a body that keeps arriving is not bounded.
	Timeout time.Duration

	// MaxRedirects is the number of upstream redirects followed. Past it the
	// redirect response itself is relayed.
	MaxRedirects int

	// RequestsPerSecond paces outbound requests process-wide (0 = unpaced).
	RequestsPerSecond float64

	// Burst is the pacing burst size.
	Burst int
}

// Result describes a finished exchange.
type Result struct {
	// StatusCode is the upstream status relayed to the client.
	StatusCode int

	// Bytes is the number of body bytes written to the client.
	Bytes int64

	// HeaderWritten reports whether the status line reached the client.
	// After that point a failure can only abort the connection.
	HeaderWritten bool

	// Cached reports whether the capture was completed.
	Cached bool
}

// Executor fetches upstream targets and streams them back.
type Executor struct {
	client      *http.Client
	pacer       *rate.Limiter
	idleTimeout time.Duration
	logger      *slog.Logger
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithTransport replaces the outbound transport. Tests use it to reroute
// provider hosts to a local server.
func WithTransport(rt http.RoundTripper) ExecutorOption {
	return func(e *Executor) {
		e.client.Transport = rt
	}
}

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor with a pooled transport.
func NewExecutor(cfg ExecutorConfig, opts ...ExecutorOption) *Executor {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	maxRedirects := cfg.MaxRedirects
	e := &Executor{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		idleTimeout: cfg.Timeout,
		logger:      slog.Default().With("component", "proxy.executor"),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		e.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute fetches target with the inbound request's method, headers and
// body, then relays the upstream status, headers and body to w.
//
// Errors before anything was written are *Error values the caller can answer
// with WriteError. An error with Result.HeaderWritten set means the stream
// broke midway; the caller must abort the connection.
//
// When capture is non-nil the body is also copied into it, and the capture is
// completed only if the copy succeeded, the status is 2xx and the body was not
// content-encoded.
func (e *Executor) Execute(w http.ResponseWriter, r *http.Request, target string, capture *Capture) (Result, error) {
	var res Result

	u, err := TargetURL(target)
	if err != nil {
		return res, err
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if e.pacer != nil {
		if err := e.pacer.Wait(ctx); err != nil {
			return res, NewUpstreamError(fmt.Errorf("waiting for outbound pacing: %w", err))
		}
	}

	body := r.Body
	if body == nil || r.ContentLength == 0 {
		body = http.NoBody
	}
	outReq, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return res, NewInvalidRequestError(fmt.Sprintf("cannot build request for %q", target), err)
	}
	outReq.ContentLength = r.ContentLength
	outReq.Header = r.Header.Clone()
	if outReq.Header == nil {
		outReq.Header = make(http.Header)
	}
	outReq.Header.Del("Host")

	start := time.Now()
	resp, err := e.client.Do(outReq)
	if err != nil {
		return res, NewUpstreamError(err)
	}
	defer resp.Body.Close()

	e.logger.DebugContext(ctx, "upstream responded",
		"url", u.Redacted(),
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if capture != nil && resp.ContentLength > capture.limit {
		capture.abandon()
	}

	header := w.Header()
	for k, vv := range resp.Header {
		header[k] = append([]string(nil), vv...)
	}
	w.WriteHeader(resp.StatusCode)
	res.StatusCode = resp.StatusCode
	res.HeaderWritten = true

	var src io.Reader = resp.Body
	if e.idleTimeout > 0 {
		idle := newIdleReader(resp.Body, e.idleTimeout, cancel)
		defer idle.stop()
		src = idle
	}

	var dst io.Writer = w
	if capture != nil {
		dst = io.MultiWriter(w, capture)
	}
	res.Bytes, err = io.Copy(dst, src)
	if err != nil {
		return res, &streamError{err: err}
	}

	if capture != nil && cacheable(resp) && !capture.overflow {
		capture.complete = true
		res.Cached = true
	}

	return res, nil
}

// cacheable reports whether a relayed response may be stored.
func cacheable(resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	return resp.Header.Get("Content-Encoding") == ""
}

// ErrUpstreamIdle is the stream failure reported when the upstream stops
// sending body bytes for longer than the executor timeout.
var ErrUpstreamIdle = errors.New("upstream body stalled")

// idleReader fails a read that waits longer than timeout for upstream bytes.
// The clock only runs inside Read, so a slow client does not count against
// the upstream.
type idleReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	fired   atomic.Bool
}

func newIdleReader(r io.Reader, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	ir := &idleReader{r: r, timeout: timeout}
	ir.timer = time.AfterFunc(timeout, func() {
		ir.fired.Store(true)
		cancel()
	})
	ir.timer.Stop()
	return ir
}

func (ir *idleReader) Read(p []byte) (int, error) {
	ir.timer.Reset(ir.timeout)
	n, err := ir.r.Read(p)
	ir.timer.Stop()
	if ir.fired.Load() {
		return n, ErrUpstreamIdle
	}
	return n, err
}

func (ir *idleReader) stop() {
	ir.timer.Stop()
}

// streamError is a failure after the response header was sent.
type streamError struct {
	err error
}

func (e *streamError) Error() string {
	return "stream aborted: " + e.err.Error()
}

func (e *streamError) Unwrap() error {
	return e.err
}

// FailureReason returns a short label for an Execute error, used in metrics.
func FailureReason(err error) string {
	var se *streamError
	var netErr net.Error
	var certErr *tls.CertificateVerificationError
	var recErr tls.RecordHeaderError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUpstreamIdle):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &se):
		return "stream"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &certErr), errors.As(err, &recErr):
		return "tls"
	default:
		var pe *Error
		if errors.As(err, &pe) && pe.Kind == KindInvalidRequest {
			return "invalid_target"
		}
		return "transport"
	}
}
