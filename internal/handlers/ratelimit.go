package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter guards the sign-up and login endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest keys the limiter by scope and client IP so sign-up and login
// are budgeted separately.
func allowRequest(limiter RateLimiter, r *http.Request, scope string, trustProxy bool) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(scope + ":" + clientIP(r, trustProxy))
}

// clientIP returns the peer address. With trustProxy set, the first valid
// proxy-supplied address wins over RemoteAddr.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := proxyIP(r); ip != "" {
			return ip
		}
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}

func proxyIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}
	return ""
}
