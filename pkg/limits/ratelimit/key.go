package ratelimit

import (
	"net/http"
	"strings"
)

// UnknownClient is the key shared by requests that carry no client address header.
const UnknownClient = "unknown"

// ClientKey derives the rate limit key for r: the first address in
// X-Forwarded-For, else X-Real-IP, else UnknownClient.
// RemoteAddr is not consulted.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}
