// Package cdn recognizes policy hosts served by well-known CDNs.
package cdn

import (
	"net"
	"strings"
)

// cdnRule maps a host suffix to a CDN name
type cdnRule struct {
	Name   string
	Suffix string
}

var cdnRules = []cdnRule{
	{Name: "Cloudflare", Suffix: "cdnjs.cloudflare.com"},
	{Name: "Cloudflare", Suffix: "cloudflare.com"},
	{Name: "Cloudflare", Suffix: "pages.dev"},
	{Name: "CloudFront", Suffix: "cloudfront.net"},
	{Name: "Fastly", Suffix: "fastly.net"},
	{Name: "Fastly", Suffix: "fastly.com"},
	{Name: "Akamai", Suffix: "akamaihd.net"},
	{Name: "Akamai", Suffix: "akamaized.net"},
	{Name: "Akamai", Suffix: "edgesuite.net"},
	{Name: "jsDelivr", Suffix: "cdn.jsdelivr.net"},
	{Name: "unpkg", Suffix: "unpkg.com"},
	{Name: "Google", Suffix: "ajax.googleapis.com"},
	{Name: "Google Fonts", Suffix: "fonts.googleapis.com"},
	{Name: "Google Fonts", Suffix: "fonts.gstatic.com"},
	{Name: "Azure CDN", Suffix: "azureedge.net"},
	{Name: "KeyCDN", Suffix: "kxcdn.com"},
	{Name: "StackPath", Suffix: "stackpathcdn.com"},
	{Name: "BunnyCDN", Suffix: "b-cdn.net"},
}

// DetectHost reports whether host (optionally with a port or a leading
// "*." wildcard) belongs to a known CDN, and which one.
func DetectHost(host string) (bool, string) {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "*.")
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return false, ""
	}

	for _, rule := range cdnRules {
		if host == rule.Suffix || strings.HasSuffix(host, "."+rule.Suffix) {
			return true, rule.Name
		}
	}
	return false, ""
}
