package policy

import (
	"net/url"
	"sort"
	"strings"
)

// HeaderName is the response header carrying a serialized policy.
const HeaderName = "Content-Security-Policy"

// trailer directives are appended to every derived policy.
var trailer = []string{
	"base-uri 'self'",
	"upgrade-insecure-requests",
	"block-all-mixed-content",
}

// Serialize renders m as a Content-Security-Policy header value.
// Directives are written in the order of Directives; empty ones are skipped.
func Serialize(m Map) string {
	var b strings.Builder

	for _, d := range Directives {
		tokens := m[d]
		if len(tokens) == 0 {
			continue
		}
		b.WriteString(string(d))
		for _, t := range tokens {
			b.WriteByte(' ')
			b.WriteString(t)
		}
		b.WriteString("; ")
	}

	for _, t := range trailer {
		b.WriteString(t)
		b.WriteString("; ")
	}

	return strings.TrimSuffix(b.String(), "; ")
}

// ParseHeader reads a Content-Security-Policy header value back into a
// Map. Directive names are lower-cased; directives without sources (such
// as upgrade-insecure-requests) are kept with an empty list.
func ParseHeader(value string) Map {
	m := make(Map)

	// CSP directives are separated by semicolons
	for _, directive := range strings.Split(value, ";") {
		parts := strings.Fields(directive)
		if len(parts) == 0 {
			continue
		}

		name := Directive(strings.ToLower(parts[0]))
		if _, seen := m[name]; seen {
			// Browsers ignore repeated directives.
			continue
		}
		m[name] = append([]string{}, parts[1:]...)
	}

	return m
}

// Domains returns the unique host sources of m, skipping keywords,
// nonces, hashes and scheme sources. Ports are kept.
func Domains(m Map) []string {
	seen := make(map[string]bool)
	var domains []string

	for _, d := range sortedDirectives(m) {
		for _, source := range m[d] {
			domain := extractDomainFromCSPSource(source)
			if domain != "" && !seen[domain] {
				seen[domain] = true
				domains = append(domains, domain)
			}
		}
	}

	return domains
}

// sortedDirectives lists the known directives of m in serialization order,
// followed by any other directives alphabetically.
func sortedDirectives(m Map) []Directive {
	var out []Directive
	known := make(map[Directive]bool, len(Directives))
	for _, d := range Directives {
		known[d] = true
		if _, ok := m[d]; ok {
			out = append(out, d)
		}
	}

	var rest []string
	for d := range m {
		if !known[d] {
			rest = append(rest, string(d))
		}
	}
	sort.Strings(rest)
	for _, d := range rest {
		out = append(out, Directive(d))
	}
	return out
}

// extractDomainFromCSPSource extracts a host[:port] from a CSP source value.
// Returns empty string for keywords, data URIs, and invalid values.
func extractDomainFromCSPSource(source string) string {
	if IsKeyword(source) {
		return ""
	}

	// If it looks like a URL, extract the host
	if strings.Contains(source, "://") {
		if u, err := url.Parse(source); err == nil && u.Host != "" {
			return strings.ToLower(u.Host)
		}
		return ""
	}

	domain := source

	// Strip any path component
	if idx := strings.Index(domain, "/"); idx != -1 {
		domain = domain[:idx]
	}

	// Validate: must contain a dot (unless it's a wildcard or localhost)
	host := domain
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host, "]") {
		host = host[:idx]
	}
	if !strings.Contains(host, ".") && !strings.HasPrefix(host, "*.") && host != "localhost" {
		return ""
	}

	return strings.ToLower(domain)
}
