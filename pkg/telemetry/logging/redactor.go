package logging

import (
	"log/slog"
	"net"
	"strings"
)

// clientAddressKeys are attribute keys whose values are client addresses.
var clientAddressKeys = map[string]bool{
	"client":        true,
	"client_key":    true,
	"remote_addr":   true,
	"forwarded_for": true,
}

// RedactClientAttr is a slog.HandlerOptions.ReplaceAttr function that masks
// client address attributes. Other attributes pass through unchanged.
func RedactClientAttr(_ []string, a slog.Attr) slog.Attr {
	if !clientAddressKeys[a.Key] || a.Value.Kind() != slog.KindString {
		return a
	}
	return slog.String(a.Key, RedactAddress(a.Value.String()))
}

// RedactAddress masks an address, keeping enough to tell networks apart.
// Forms handled: "1.2.3.4", "1.2.3.4:5678", "[2001:db8::1]:443", "2001:db8::1"
// and comma separated X-Forwarded-For lists. The "unknown" client key is kept;
// anything else becomes "***".
func RedactAddress(addr string) string {
	if addr == "" || addr == "unknown" {
		return addr
	}
	if strings.Contains(addr, ",") {
		parts := strings.Split(addr, ",")
		for i, p := range parts {
			parts[i] = RedactAddress(strings.TrimSpace(p))
		}
		return strings.Join(parts, ", ")
	}

	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	switch {
	case ip == nil:
		return "***"
	case ip.To4() != nil:
		return RedactIPv4(ip.String())
	default:
		return RedactIPv6(ip.String())
	}
}

// RedactIPv4 redacts an IPv4 address, keeping only the first octet.
func RedactIPv4(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}

	return parts[0] + ".*.*.*"
}

// RedactIPv6 redacts an IPv6 address, keeping only the first group.
func RedactIPv6(ip string) string {
	i := strings.Index(ip, ":")
	if i < 0 {
		return ip
	}
	return ip[:i] + ":*"
}
