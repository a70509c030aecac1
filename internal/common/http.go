package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP attempts to determine the real client IP address from the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
		return strings.TrimSpace(ip)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// TerminalID resolves the POS terminal identifier for the request. Saved carts
// are scoped per terminal; an unset header falls back to a shared default so a
// single-register shop needs no configuration.
func TerminalID(r *http.Request) string {
	if r == nil {
		return "default"
	}
	if id := strings.TrimSpace(r.Header.Get("X-Terminal-ID")); id != "" {
		return id
	}
	return "default"
}
