package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"cspHTTP/internal/policy"
)

// Settings is the YAML settings file. It supplies the static parts of the
// policy and the configuration of the supplementary headers.
type Settings struct {
	SiteURL     string            `yaml:"site_url"`
	ContentURLs []string          `yaml:"content_base_urls"`
	CSP         CSPSettings       `yaml:"csp"`
	Headers     HeaderSettings    `yaml:"headers"`
	CORS        CORSSettings      `yaml:"cors"`
	RateLimit   RateLimitSettings `yaml:"rate_limit"`
}

// CSPSettings holds administrator configured policy sources.
type CSPSettings struct {
	Domains []policy.DomainRule `yaml:"domains"`
}

// HeaderSettings configures HSTS and Permissions-Policy.
type HeaderSettings struct {
	HSTSMaxAge        int    `yaml:"hsts_max_age"`
	PermissionsPolicy string `yaml:"permissions_policy"`
}

// CORSSettings lists additional allowed origins.
type CORSSettings struct {
	Origins         []string `yaml:"origins"`
	AllowSubdomains bool     `yaml:"allow_subdomains"`
}

// RateLimitSettings controls the per-client limit on form submissions.
type RateLimitSettings struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

const (
	defaultHSTSMaxAge        = 31536000
	defaultPermissionsPolicy = "autoplay=(self), fullscreen=(self), microphone=(), camera=(), geolocation=(), payment=();"
	defaultRequestsPerMinute = 5
)

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() *Settings {
	s := baseSettings()
	s.applyDefaults()
	return s
}

// baseSettings holds the defaults a settings file is decoded over, so
// values set explicitly in the file, including 0, are kept. Burst is left
// unset to follow requests_per_minute.
func baseSettings() *Settings {
	return &Settings{
		Headers: HeaderSettings{
			HSTSMaxAge:        defaultHSTSMaxAge,
			PermissionsPolicy: defaultPermissionsPolicy,
		},
		RateLimit: RateLimitSettings{
			RequestsPerMinute: defaultRequestsPerMinute,
		},
	}
}

// LoadSettings reads a YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML settings over the defaults. A
// requests_per_minute or hsts_max_age of 0 disables the feature.
func ParseSettings(data []byte) (*Settings, error) {
	s := baseSettings()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	s.applyDefaults()
	return s, nil
}

func (s *Settings) applyDefaults() {
	if s.Headers.HSTSMaxAge < 0 {
		s.Headers.HSTSMaxAge = defaultHSTSMaxAge
	}
	if s.Headers.PermissionsPolicy == "" {
		s.Headers.PermissionsPolicy = defaultPermissionsPolicy
	}
	if s.RateLimit.RequestsPerMinute < 0 {
		s.RateLimit.RequestsPerMinute = defaultRequestsPerMinute
	}
	if s.RateLimit.Burst <= 0 {
		s.RateLimit.Burst = s.RateLimit.RequestsPerMinute
	}
}

// ConfiguredDomains implements policy.DomainSource.
func (s *Settings) ConfiguredDomains() []policy.DomainRule {
	return s.CSP.Domains
}

// ContentBaseURLs implements policy.ContentSource.
func (s *Settings) ContentBaseURLs() []string {
	return s.ContentURLs
}
