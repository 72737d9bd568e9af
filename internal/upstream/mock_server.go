// Package upstream provides a fake git provider for tests.
//
// MockServer answers canned responses by path and counts every request it
// receives. Its Transport reroutes any absolute URL, such as
// https://github.com/a/b/raw/main/f, to the local server while keeping the
// original host, so the relay can be exercised end to end without network.
package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock git provider.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requests     []RecordedRequest
	requestCount int
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string

	// Chunks are written and flushed one by one after Body.
	Chunks []string

	// Abort breaks the connection after the body and chunks were written.
	Abort bool
}

// RecordedRequest is what the mock saw of one request.
type RecordedRequest struct {
	Method string
	Host   string
	Path   string
	Header http.Header
	Body   []byte
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}

	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))

	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a path, regardless of host.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.requestCount
}

// ResetRequestCount resets the request counter and the recorded requests.
func (ms *MockServer) ResetRequestCount() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.requestCount = 0
	ms.requests = nil
}

// Requests returns a copy of the recorded requests.
func (ms *MockServer) Requests() []RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return append([]RecordedRequest(nil), ms.requests...)
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(ms.requests) == 0 {
		return RecordedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

// Transport returns a RoundTripper that sends every request to the mock
// server. The request's original host is preserved in Request.Host.
func (ms *MockServer) Transport() http.RoundTripper {
	addr := ms.server.Listener.Addr().String()
	return plainScheme{next: &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
		DisableCompression: true,
	}}
}

// rerouting happens at dial time, so https targets must be downgraded.
type plainScheme struct {
	next http.RoundTripper
}

func (p plainScheme) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.URL.Scheme == "https" {
		r = r.Clone(r.Context())
		r.URL.Scheme = "http"
	}
	return p.next.RoundTrip(r)
}

// handler handles incoming HTTP requests.
func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.requests = append(ms.requests, RecordedRequest{
		Method: r.Method,
		Host:   r.Host,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = io.WriteString(w, v)
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}

	flusher, _ := w.(http.Flusher)
	for _, chunk := range response.Chunks {
		_, _ = io.WriteString(w, chunk)
		if flusher != nil {
			flusher.Flush()
		}
	}

	if response.Abort {
		panic(http.ErrAbortHandler)
	}
}

// MockText creates a 200 text response.
func MockText(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}
}

// MockStatus creates an empty response with the given status.
func MockStatus(statusCode int) MockResponse {
	return MockResponse{StatusCode: statusCode}
}

// MockRedirect creates a 302 response pointing at location.
func MockRedirect(location string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusFound,
		Headers:    map[string]string{"Location": location},
	}
}

// MockSlow creates a response whose headers arrive after delay.
func MockSlow(delay time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "slow",
		Delay:      delay,
	}
}
