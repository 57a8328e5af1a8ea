package cdn

import "testing"

func TestDetectHost(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		wantCDN  bool
		wantName string
	}{
		{"cdnjs", "cdnjs.cloudflare.com", true, "Cloudflare"},
		{"cloudfront subdomain", "d111111abcdef8.cloudfront.net", true, "CloudFront"},
		{"with port", "cdn.jsdelivr.net:443", true, "jsDelivr"},
		{"mixed case", "Fonts.GStatic.com", true, "Google Fonts"},
		{"wildcard", "*.akamaized.net", true, "Akamai"},
		{"trailing dot", "unpkg.com.", true, "unpkg"},
		{"suffix without dot boundary", "notcloudfront.net", false, ""},
		{"plain host", "example.com", false, ""},
		{"keyword", "'self'", false, ""},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cdn, name := DetectHost(tt.host)
			if cdn != tt.wantCDN || name != tt.wantName {
				t.Errorf("DetectHost(%q) = (%v, %q), want (%v, %q)", tt.host, cdn, name, tt.wantCDN, tt.wantName)
			}
		})
	}
}

func TestDetectHost_RuleOrder(t *testing.T) {
	// Every rule must be reachable through its own suffix.
	for _, rule := range cdnRules {
		ok, name := DetectHost("assets." + rule.Suffix)
		if !ok {
			t.Errorf("rule %s (%s) not detected", rule.Name, rule.Suffix)
			continue
		}
		if name == "" {
			t.Errorf("rule %s (%s) detected without a name", rule.Name, rule.Suffix)
		}
	}
}
