package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"ghproxy-hq/ghproxy/pkg/config"
)

// CORSConfig contains configuration for the preflight responder.
type CORSConfig struct {
	// Enabled controls whether preflight requests are answered.
	Enabled bool

	// AllowedOrigin is the Access-Control-Allow-Origin value.
	AllowedOrigin string

	// AllowedMethods is the Access-Control-Allow-Methods list.
	AllowedMethods []string

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig returns the fixed preflight answer.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		Enabled:        true,
		AllowedOrigin:  config.DefaultCORSAllowedOrigin,
		AllowedMethods: append([]string(nil), config.DefaultCORSAllowedMethods...),
		MaxAge:         config.DefaultCORSMaxAge,
	}
}

// CORSConfigFrom converts the server's CORS section.
func CORSConfigFrom(cfg *config.CORSConfig) *CORSConfig {
	return &CORSConfig{
		Enabled:        cfg.Enabled,
		AllowedOrigin:  cfg.AllowedOrigin,
		AllowedMethods: cfg.AllowedMethods,
		MaxAge:         cfg.MaxAge,
	}
}

// CORSMiddleware short-circuits CORS preflight requests with 204 No Content.
// A preflight is an OPTIONS request carrying Access-Control-Request-Headers;
// every other request, including a plain OPTIONS, goes to next unchanged.
//
// Example usage:
//
//	handler = CORSMiddleware(DefaultCORSConfig())(handler)
func CORSMiddleware(cfg *CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || !isPreflight(r) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", cfg.AllowedOrigin)
			if len(cfg.AllowedMethods) > 0 {
				h.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ","))
			}
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}

			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func isPreflight(r *http.Request) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	_, ok := r.Header[http.CanonicalHeaderKey("Access-Control-Request-Headers")]
	return ok
}
