package shield

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// CORSConfig lists the origins allowed to make credentialed cross-origin
// requests.
type CORSConfig struct {
	// SiteURL is the site's own origin, e.g. "https://example.com". It is
	// always allowed and used as the fallback Access-Control-Allow-Origin.
	SiteURL string
	// AllowSubdomains also allows every subdomain of SiteURL.
	AllowSubdomains bool
	// Origins are additional allowed origins. "https://*.example.com"
	// matches any subdomain of example.com.
	Origins []string
}

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-Requested-With"
)

var subdomainPrefix = regexp.MustCompile(`^https?://([a-z0-9.-]+\.)?$`)

// AllowedOrigins returns the unique origin patterns of cfg.
func (cfg CORSConfig) AllowedOrigins() []string {
	site := strings.TrimSuffix(cfg.SiteURL, "/")

	var origins []string
	if site != "" {
		origins = append(origins, site)
		if cfg.AllowSubdomains {
			origins = append(origins, wildcardOrigin(site))
		}
	}
	origins = append(origins, cfg.Origins...)

	seen := make(map[string]bool, len(origins))
	unique := origins[:0]
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		unique = append(unique, o)
	}
	return unique
}

// wildcardOrigin turns "https://example.com" into "https://*.example.com".
func wildcardOrigin(site string) string {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return site
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://*." + u.Host
}

// OriginAllowed reports whether origin matches one of the allowed patterns.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, pattern := range allowed {
		if matchOrigin(origin, pattern) {
			return true
		}
	}
	return false
}

func matchOrigin(origin, pattern string) bool {
	if origin == pattern {
		return true
	}

	i := strings.Index(pattern, "*.")
	if i < 0 {
		return false
	}
	domain := pattern[i+2:]
	if !strings.HasSuffix(origin, domain) {
		return false
	}
	return subdomainPrefix.MatchString(strings.TrimSuffix(origin, domain))
}

// CORS returns middleware that answers cross-origin requests from allowed
// origins with credentialed CORS headers. Other requests get the site URL
// as Access-Control-Allow-Origin. A response that already carries
// Access-Control-Allow-Origin is left alone.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowed := cfg.AllowedOrigins()
	site := strings.TrimSuffix(cfg.SiteURL, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !hasHeader(h, "Access-Control-Allow-Origin") {
				origin := r.Header.Get("Origin")
				switch {
				case OriginAllowed(origin, allowed):
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Access-Control-Allow-Methods", corsMethods)
					h.Set("Access-Control-Allow-Headers", corsHeaders)
					h.Add("Vary", "Origin")

					if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
						w.WriteHeader(http.StatusNoContent)
						return
					}
				case site != "":
					h.Set("Access-Control-Allow-Origin", site)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
