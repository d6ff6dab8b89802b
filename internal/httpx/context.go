package httpx

import (
	"net"
	"net/http"
	"strings"

	"opdsapi/internal/logging"
)

// RequestIDFrom retrieves the request ID from the request context.
func RequestIDFrom(r *http.Request) string {
	return logging.RequestIDFromContext(r.Context())
}

// ClientIP is the end-user address forwarded upstream: the
// preferred_client_ip parameter, then X-Real-Ip, then the first
// X-Forwarded-For hop. It is empty when none is present.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.URL.Query().Get("preferred_client_ip")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return ""
}

// RemoteIP is ClientIP, or the peer address when the request names no
// client. Used for rate limiting and access logs, never sent upstream.
func RemoteIP(r *http.Request) string {
	if ip := ClientIP(r); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
