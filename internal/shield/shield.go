// Package shield provides the security middleware applied next to the
// derived content security policy: HSTS, Permissions-Policy, CORS and
// per-client rate limiting of form submissions.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.NewRateLimiter(shield.DefaultRateLimit(), logger).Middleware)
//	r.Use(shield.HSTS(shield.DefaultHSTSMaxAge))
//	r.Use(shield.Permissions(shield.DefaultPermissionsPolicy))
//	r.Use(shield.CORS(shield.CORSConfig{SiteURL: "https://example.com"}))
package shield

import (
	"net/http"
	"strings"
)

// hasHeader reports whether name is already set on h, ignoring case.
func hasHeader(h http.Header, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
