package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ghproxy-hq/ghproxy/internal/upstream"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestExecutor(t *testing.T, ms *upstream.MockServer, cfg ExecutorConfig) *Executor {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return NewExecutor(cfg, WithTransport(ms.Transport()))
}

func TestExecute_RelaysResponse(t *testing.T) {
	ms := upstream.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/a/b/raw/main/README.md", upstream.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "# readme",
		Headers:    map[string]string{"Content-Type": "text/plain", "ETag": `"abc"`},
	})

	e := newTestExecutor(t, ms, ExecutorConfig{})
	r := httptest.NewRequest(http.MethodGet, "/github.com/a/b/blob/main/README.md", nil)
	r.Header.Set("X-Custom", "kept")
	w := httptest.NewRecorder()

	res, err := e.Execute(w, r, "github.com/a/b/raw/main/README.md", nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.StatusCode != http.StatusOK || w.Code != http.StatusOK {
		t.Errorf("status = %d/%d, want 200", res.StatusCode, w.Code)
	}
	if w.Body.String() != "# readme" {
		t.Errorf("body = %q, want %q", w.Body.String(), "# readme")
	}
	if res.Bytes != int64(len("# readme")) {
		t.Errorf("Bytes = %d, want %d", res.Bytes, len("# readme"))
	}
	if got := w.Header().Get("ETag"); got != `"abc"` {
		t.Errorf("ETag = %q, want %q", got, `"abc"`)
	}

	got, ok := ms.LastRequest()
	if !ok {
		t.Fatal("upstream saw no request")
	}
	if got.Host != "github.com" {
		t.Errorf("upstream Host = %q, want github.com", got.Host)
	}
	if got.Header.Get("X-Custom") != "kept" {
		t.Errorf("X-Custom = %q, want kept", got.Header.Get("X-Custom"))
	}
}

func TestExecute_ForwardsMethodAndBody(t *testing.T) {
	ms := upstream.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/a/b/git-upload-pack", upstream.MockStatus(http.StatusOK))

	e := newTestExecutor(t, ms, ExecutorConfig{})
	r := httptest.NewRequest(http.MethodPost, "/github.com/a/b/git-upload-pack", strings.NewReader("0000want"))
	w := httptest.NewRecorder()

	if _, err := e.Execute(w, r, "https://github.com/a/b/git-upload-pack", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got, _ := ms.LastRequest()
	if got.Method != http.MethodPost {
		t.Errorf("method = %q, want POST", got.Method)
	}
	if string(got.Body) != "0000want" {
		t.Errorf("body = %q, want 0000want", got.Body)
	}
}

func TestExecute_Capture(t *testing.T) {
	tests := []struct {
		name       string
		response   upstream.MockResponse
		limit      int64
		wantCached bool
	}{
		{
			name:       "2xx is committed",
			response:   upstream.MockText("0123456789"),
			limit:      100,
			wantCached: true,
		},
		{
			name:       "non-2xx is not committed",
			response:   upstream.MockResponse{StatusCode: http.StatusNotFound, Body: "missing"},
			limit:      100,
			wantCached: false,
		},
		{
			name: "content-encoded body is not committed",
			response: upstream.MockResponse{
				StatusCode: http.StatusOK,
				Body:       "not really gzip",
				Headers:    map[string]string{"Content-Encoding": "gzip"},
			},
			limit:      100,
			wantCached: false,
		},
		{
			name:       "declared length over limit is abandoned",
			response:   upstream.MockText("0123456789"),
			limit:      5,
			wantCached: false,
		},
		{
			name: "streamed body over limit is abandoned",
			response: upstream.MockResponse{
				StatusCode: http.StatusOK,
				Chunks:     []string{"0123", "4567", "89"},
			},
			limit:      5,
			wantCached: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := upstream.NewMockServer()
			defer ms.Close()
			ms.SetResponse("/a/b/raw/main/f", tt.response)

			e := newTestExecutor(t, ms, ExecutorConfig{})
			r := httptest.NewRequest(http.MethodGet, "/github.com/a/b/raw/main/f", nil)
			w := httptest.NewRecorder()
			capture := NewCapture(tt.limit)

			res, err := e.Execute(w, r, "github.com/a/b/raw/main/f", capture)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if res.Cached != tt.wantCached {
				t.Errorf("Cached = %v, want %v", res.Cached, tt.wantCached)
			}
			body, ok := capture.Bytes()
			if ok != tt.wantCached {
				t.Errorf("Bytes() ok = %v, want %v", ok, tt.wantCached)
			}
			if ok && string(body) != w.Body.String() {
				t.Errorf("captured %q, client got %q", body, w.Body.String())
			}
			if w.Body.Len() == 0 {
				t.Error("client received no body")
			}
		})
	}
}

func TestExecute_TransportFailure(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Timeout: time.Second}, WithTransport(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})))

	r := httptest.NewRequest(http.MethodGet, "/github.com/a/b/raw/main/f", nil)
	w := httptest.NewRecorder()

	res, err := e.Execute(w, r, "github.com/a/b/raw/main/f", NewCapture(100))
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindUpstreamUnavailable {
		t.Fatalf("Execute() error = %v, want upstream unavailable", err)
	}
	if res.HeaderWritten {
		t.Error("HeaderWritten = true after a transport failure")
	}
	if got := FailureReason(err); got != "transport" {
		t.Errorf("FailureReason() = %q, want transport", got)
	}
}

func TestExecute_HeaderTimeout(t *testing.T) {
	ms := upstream.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/slow", upstream.MockSlow(2*time.Second))

	e := NewExecutor(ExecutorConfig{Timeout: 50 * time.Millisecond})
	r := httptest.NewRequest(http.MethodGet, "/slow", nil)
	w := httptest.NewRecorder()

	_, err := e.Execute(w, r, ms.URL()+"/slow", nil)
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindUpstreamUnavailable {
		t.Fatalf("Execute() error = %v, want upstream unavailable", err)
	}
	if got := FailureReason(err); got != "timeout" {
		t.Errorf("FailureReason() = %q, want timeout", got)
	}
}

func TestExecute_Redirects(t *testing.T) {
	ms := upstream.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/a/b/releases/download/v1/x.tar.gz", upstream.MockRedirect("https://objects.githubusercontent.com/x.tar.gz"))
	ms.SetResponse("/x.tar.gz", upstream.MockText("archive"))

	t.Run("followed", func(t *testing.T) {
		e := newTestExecutor(t, ms, ExecutorConfig{MaxRedirects: 10})
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		res, err := e.Execute(w, r, "github.com/a/b/releases/download/v1/x.tar.gz", nil)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.StatusCode != http.StatusOK || w.Body.String() != "archive" {
			t.Errorf("got %d %q, want 200 archive", res.StatusCode, w.Body.String())
		}
	})

	t.Run("relayed when not following", func(t *testing.T) {
		e := newTestExecutor(t, ms, ExecutorConfig{MaxRedirects: 0})
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		res, err := e.Execute(w, r, "github.com/a/b/releases/download/v1/x.tar.gz", nil)
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if res.StatusCode != http.StatusFound {
			t.Errorf("status = %d, want 302", res.StatusCode)
		}
		if loc := w.Header().Get("Location"); loc != "https://objects.githubusercontent.com/x.tar.gz" {
			t.Errorf("Location = %q", loc)
		}
	})
}

func TestExecute_StreamAbort(t *testing.T) {
	ms := upstream.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/a/b/archive/main.zip", upstream.MockResponse{
		StatusCode: http.StatusOK,
		Chunks:     []string{"PK", "partial"},
		Abort:      true,
	})

	e := newTestExecutor(t, ms, ExecutorConfig{})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	capture := NewCapture(1 << 20)

	res, err := e.Execute(w, r, "github.com/a/b/archive/main.zip", capture)
	if err == nil {
		t.Fatal("Execute() error = nil, want stream failure")
	}
	if !res.HeaderWritten {
		t.Error("HeaderWritten = false, want true")
	}
	if got := FailureReason(err); got != "stream" {
		t.Errorf("FailureReason() = %q, want stream", got)
	}
	if _, ok := capture.Bytes(); ok {
		t.Error("capture committed from a broken stream")
	}
}

func TestExecute_StalledBody(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	e := NewExecutor(ExecutorConfig{Timeout: 200 * time.Millisecond})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	capture := NewCapture(1 << 20)

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := e.Execute(w, r, srv.URL+"/stall", capture)
		done <- outcome{res, err}
	}()

	var got outcome
	select {
	case got = <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Execute still blocked 3s after the upstream stopped sending")
	}

	if got.err == nil {
		t.Fatal("Execute() error = nil, want stalled stream failure")
	}
	if !errors.Is(got.err, ErrUpstreamIdle) {
		t.Errorf("Execute() error = %v, want ErrUpstreamIdle", got.err)
	}
	if !got.res.HeaderWritten || got.res.Bytes != int64(len("partial")) {
		t.Errorf("result = %+v, want header written and 7 bytes", got.res)
	}
	if reason := FailureReason(got.err); reason != "timeout" {
		t.Errorf("FailureReason() = %q, want timeout", reason)
	}
	if _, ok := capture.Bytes(); ok {
		t.Error("capture committed from a stalled stream")
	}
}

func TestIdleReader_SlowConsumerNotCharged(t *testing.T) {
	canceled := make(chan struct{})
	ir := newIdleReader(strings.NewReader("abc"), 50*time.Millisecond, func() { close(canceled) })
	defer ir.stop()

	buf := make([]byte, 1)
	for i := 0; i < 3; i++ {
		if _, err := ir.Read(buf); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		// Time spent between reads belongs to the client side.
		time.Sleep(80 * time.Millisecond)
	}

	select {
	case <-canceled:
		t.Error("idle timer fired while the reader was not waiting on upstream")
	default:
	}
}

func TestExecute_InvalidTarget(t *testing.T) {
	e := NewExecutor(ExecutorConfig{Timeout: time.Second})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	_, err := e.Execute(w, r, "https:///nohost", nil)
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindInvalidRequest {
		t.Fatalf("Execute() error = %v, want invalid request", err)
	}
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Error("executor wrote to the client on an invalid target")
	}
}

func TestExecute_Pacing(t *testing.T) {
	ms := upstream.NewMockServer()
	defer ms.Close()
	ms.SetResponse("/f", upstream.MockText("ok"))

	e := newTestExecutor(t, ms, ExecutorConfig{RequestsPerSecond: 1, Burst: 1})

	// The burst token is spent by the first request; the second must wait
	// longer than its context allows.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := e.Execute(httptest.NewRecorder(), r, "github.com/f", nil); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	r = httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	_, err := e.Execute(httptest.NewRecorder(), r, "github.com/f", nil)
	var pe *Error
	if !errors.As(err, &pe) || pe.Kind != KindUpstreamUnavailable {
		t.Fatalf("second Execute() error = %v, want upstream unavailable", err)
	}
	if ms.GetRequestCount() != 1 {
		t.Errorf("upstream requests = %d, want 1", ms.GetRequestCount())
	}
}
