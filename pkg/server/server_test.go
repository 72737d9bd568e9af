package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ghproxy-hq/ghproxy/pkg/config"
	"ghproxy-hq/ghproxy/pkg/limits/ratelimit"
)

func testServerConfig() *config.ServerConfig {
	cfg := config.NewDefaultConfig().Server
	cfg.Address = "127.0.0.1:0"
	cfg.ShutdownTimeout = 2 * time.Second
	return &cfg
}

// echoPath answers with the request URI it received.
var echoPath = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = io.WriteString(w, "relay:"+r.RequestURI)
})

func TestHandler_Dispatch(t *testing.T) {
	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "health")
	})
	srv := NewServer(testServerConfig(), echoPath, WithRoute("/health", health), WithRoute("", health))
	h := srv.Handler()

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"exact route", "/health", "health"},
		{"route prefix is relayed", "/healthz", "relay:/healthz"},
		{"embedded url not cleaned", "/https://github.com/a/b/raw/main/f", "relay:/https://github.com/a/b/raw/main/f"},
		{"root", "/", "relay:/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if w.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.want)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
		})
	}
}

func TestHandler_Preflight(t *testing.T) {
	srv := NewServer(testServerConfig(), echoPath)

	r := httptest.NewRequest(http.MethodOptions, "/https://github.com/a/b/raw/main/f", nil)
	r.Header.Set("Access-Control-Request-Headers", "content-type")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET,POST,PUT,PATCH,TRACE,DELETE,HEAD,OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "1728000" {
		t.Errorf("Max-Age = %q, want 1728000", got)
	}
}

func TestHandler_ConcurrencyLimit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})

	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := NewServer(testServerConfig(), blocking,
		WithConcurrencyLimiter(ratelimit.NewConcurrentLimiter(1)),
		WithRoute("/health", health),
	)
	h := srv.Handler()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a", nil))
	}()
	<-entered

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/b", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("second relay request status = %d, want 503", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status under load = %d, want 200", w.Code)
	}

	close(release)
	wg.Wait()
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := NewServer(testServerConfig(), echoPath)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("Start() returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	if !srv.IsRunning() {
		t.Error("IsRunning() = false after start")
	}

	resp, err := http.Get("http://" + srv.Addr() + "/https://github.com/a/b/raw/main/f")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "relay:/https://github.com/a/b/raw/main/f" {
		t.Errorf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestServer_StartTwice(t *testing.T) {
	srv := NewServer(testServerConfig(), echoPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Start(ctx) }()
	<-srv.Ready()

	if err := srv.Start(ctx); err == nil {
		t.Error("second Start() error = nil, want already running")
	}
}

func TestServer_ListenError(t *testing.T) {
	cfg := testServerConfig()
	cfg.Address = "256.0.0.1:bad"

	if err := NewServer(cfg, echoPath).Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want listen failure")
	}
}
