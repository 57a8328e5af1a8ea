package parser

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidURL is returned when a value cannot be read as a URL.
var ErrInvalidURL = errors.New("invalid URL")

// Normalize canonicalizes a URL-like string found in markup so that
// equivalent references compare equal.
//
// Steps, in order:
//   - un-escape JSON style "\/" sequences and drop any remaining backslashes
//   - trim exactly one trailing "/"
//   - turn a protocol-relative "//host" into "https://host"
//   - lower-case scheme and host, keep an explicit port
//
// Components absent from the input are absent from the output.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, `\/`, "/")
	s = strings.ReplaceAll(s, `\`, "")
	s = strings.TrimSuffix(s, "/")

	if s == "" {
		return "", ErrInvalidURL
	}
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	var b strings.Builder
	b.Grow(len(s))

	if u.Scheme != "" {
		b.WriteString(strings.ToLower(u.Scheme))
		if u.Opaque != "" {
			// mailto:, data:, javascript: and friends
			b.WriteByte(':')
			b.WriteString(u.Opaque)
			writeQueryFragment(&b, u)
			return b.String(), nil
		}
		b.WriteString("://")
	}

	if host := u.Hostname(); host != "" {
		b.WriteString(joinHostPort(strings.ToLower(host), u.Port()))
	}

	b.WriteString(u.EscapedPath())
	writeQueryFragment(&b, u)

	return b.String(), nil
}

func writeQueryFragment(b *strings.Builder, u *url.URL) {
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.EscapedFragment())
	}
}

// joinHostPort rebuilds host[:port], re-adding brackets for IPv6 literals.
func joinHostPort(host, port string) string {
	if port != "" {
		return net.JoinHostPort(host, port)
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

// parseNormalized normalizes raw and parses the result.
func parseNormalized(raw string) (*url.URL, bool) {
	normalized, err := Normalize(raw)
	if err != nil {
		return nil, false
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, false
	}
	return u, true
}

// HostWithPort returns "host" or "host:port" for a URL-like value.
// The second return value is false when the value has no host or
// carries a port outside 1-65535; callers skip such values.
func HostWithPort(raw string) (string, bool) {
	u, ok := parseNormalized(raw)
	if !ok {
		return "", false
	}

	host := u.Hostname()
	if host == "" {
		return "", false
	}

	port := u.Port()
	if port != "" {
		if _, err := ParsePort(port); err != nil {
			return "", false
		}
	}

	return joinHostPort(host, port), true
}

// IsAbsoluteURL reports whether the whole value is a URL with a scheme and
// a host, e.g. "https://api.example.com/v1". Values containing whitespace
// are never a single URL.
func IsAbsoluteURL(raw string) bool {
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// IsRelative reports whether the value references the current origin:
// no scheme, no host, and a non-empty path or query.
func IsRelative(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "//") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == "" && (u.Path != "" || u.RawQuery != "")
}

// Extension returns the lower-cased file extension of the URL path without
// the leading dot, or "" when there is none.
func Extension(raw string) string {
	u, ok := parseNormalized(raw)
	if !ok {
		return ""
	}
	ext := path.Ext(u.Path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
