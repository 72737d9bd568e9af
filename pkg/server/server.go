package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"ghproxy-hq/ghproxy/pkg/config"
	"ghproxy-hq/ghproxy/pkg/limits/ratelimit"
	"ghproxy-hq/ghproxy/pkg/proxy/middleware"
)

// Server is the ghproxy HTTP server.
type Server struct {
	config      *config.ServerConfig
	relay       http.Handler
	routes      map[string]http.Handler
	concurrency *ratelimit.ConcurrentLimiter
	logger      *slog.Logger

	httpServer   *http.Server
	listener     net.Listener
	ready        chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option customizes a Server.
type Option func(*Server)

// WithRoute serves handler for requests whose path is exactly path.
// Routed handlers bypass the concurrency guard and CORS preflight.
// An empty path is ignored.
func WithRoute(path string, handler http.Handler) Option {
	return func(s *Server) {
		if path != "" && handler != nil {
			s.routes[path] = handler
		}
	}
}

// WithConcurrencyLimiter caps simultaneously relayed requests.
func WithConcurrencyLimiter(l *ratelimit.ConcurrentLimiter) Option {
	return func(s *Server) {
		s.concurrency = l
	}
}

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server that sends every request not matched by a
// route to relay.
func NewServer(cfg *config.ServerConfig, relay http.Handler, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		relay:  relay,
		routes: make(map[string]http.Handler),
		logger: slog.Default().With("component", "server"),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully. It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()
	close(s.ready)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Ready is closed once Start has bound its listener.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits up to ShutdownTimeout for
// in-flight requests. Streams still running after that are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			_ = s.httpServer.Close()
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the complete handler chain.
//
// Outermost first: recovery, request ID, logging, then the dispatcher. The
// relay branch adds the concurrency guard and the CORS preflight responder.
func (s *Server) Handler() http.Handler {
	var relay http.Handler = s.relay
	relay = middleware.CORSMiddleware(middleware.CORSConfigFrom(&s.config.CORS))(relay)
	relay = middleware.ConcurrencyMiddleware(s.concurrency)(relay)

	var handler http.Handler = &dispatcher{routes: s.routes, fallback: relay}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// dispatcher matches exact paths and sends everything else to fallback.
// http.ServeMux is not used because it cleans paths, turning the embedded
// "https://" of a relayed URL into "https:/".
type dispatcher struct {
	routes   map[string]http.Handler
	fallback http.Handler
}

func (d *dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := d.routes[r.URL.Path]; ok {
		h.ServeHTTP(w, r)
		return
	}
	d.fallback.ServeHTTP(w, r)
}
