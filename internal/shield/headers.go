package shield

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultHSTSMaxAge is one year in seconds.
	DefaultHSTSMaxAge = 31536000

	// DefaultPermissionsPolicy restricts powerful browser features to the
	// site itself and disables device access.
	DefaultPermissionsPolicy = "autoplay=(self), fullscreen=(self), microphone=(), camera=(), geolocation=(), payment=();"
)

// HSTS returns middleware that sets Strict-Transport-Security on requests
// served over HTTPS, directly or behind a TLS terminating proxy.
func HSTS(maxAge int) func(http.Handler) http.Handler {
	value := "max-age=" + strconv.Itoa(maxAge) + ";"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 && IsHTTPS(r) {
				w.Header().Set("Strict-Transport-Security", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsHTTPS reports whether the client connection uses TLS.
func IsHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if i := strings.IndexByte(proto, ','); i >= 0 {
		proto = proto[:i]
	}
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}

// Permissions returns middleware that sets Permissions-Policy unless the
// wrapped handler or an earlier middleware already did.
func Permissions(policy string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy != "" && !hasHeader(w.Header(), "Permissions-Policy") {
				w.Header().Set("Permissions-Policy", policy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
