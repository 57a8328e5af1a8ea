package policy

import (
	"regexp"
	"strings"

	"cspHTTP/internal/parser"
)

// DomainRule is a statically configured source for one directive.
type DomainRule struct {
	Directive string `yaml:"directive" json:"directive"`
	Domain    string `yaml:"domain" json:"domain"`
}

// DomainSource supplies administrator configured sources that are merged
// into the derived policy.
type DomainSource interface {
	ConfiguredDomains() []DomainRule
}

// ContentSource supplies the base URLs the site serves its own assets
// from (upload directory, CDN). Their hosts are allowed for every asset
// directive.
type ContentSource interface {
	ContentBaseURLs() []string
}

// contentDirectives receive the hosts of ContentSource base URLs.
var contentDirectives = []Directive{
	ScriptSrc,
	StyleSrc,
	ImgSrc,
	MediaSrc,
	FontSrc,
	ConnectSrc,
}

var invalidDomainChars = regexp.MustCompile(`[^a-zA-Z0-9.*:\-]`)

// SanitizeDomain turns a configured domain into a source token. Full URLs
// are reduced to host[:port], keywords pass through unchanged, and
// wildcard domains get an https:// scheme. Returns "" when nothing usable
// remains.
func SanitizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" || domain == "*" {
		return ""
	}

	if IsKeyword(domain) {
		if lower := strings.ToLower(domain); cspKeywords[lower] {
			return lower
		}
		return domain
	}

	if strings.Contains(domain, "://") && !strings.Contains(domain, "*") {
		if host, ok := parser.HostWithPort(domain); ok {
			return host
		}
		return ""
	}

	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	domain = invalidDomainChars.ReplaceAllString(domain, "")
	domain = strings.Trim(domain, ".:-")
	if domain == "" || domain == "*" {
		return ""
	}

	if strings.Contains(domain, "*") {
		return "https://" + strings.ToLower(domain)
	}
	return strings.ToLower(domain)
}
