package config

import (
	"maps"
	"net"
	"strings"
)

// SiteConfig holds per-site settings from the configuration file.
type SiteConfig struct {
	// Cookie is sent with every request to the site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request to the site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the depth limit. Zero keeps the global value.
	Depth int `yaml:"depth,omitempty"`

	// IgnorePatterns are glob patterns for URL paths that are not followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// TriggerSelector overrides the CSS selector for navigation triggers.
	TriggerSelector string `yaml:"triggerSelector,omitempty"`
}

// RequestHeaders returns Headers plus the Cookie header, if one is set.
// The returned map is a copy.
func (s SiteConfig) RequestHeaders() map[string]string {
	out := maps.Clone(s.Headers)
	if s.Cookie != "" {
		if out == nil {
			out = make(map[string]string, 1)
		}
		out["Cookie"] = s.Cookie
	}
	return out
}

// File is the structure of the .mailcrawl configuration file.
type File struct {
	// Defaults apply to every site unless a site entry overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a host ("example.com" or "example.com:8080") to its
	// settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the defaults merged with the entry for host.
// host may carry a port; an entry for "host:port" wins over one for the
// bare host name. Matching is case-insensitive.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if siteConfig.TriggerSelector != "" {
		result.TriggerSelector = siteConfig.TriggerSelector
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	candidates := []string{host}
	if name, _, err := net.SplitHostPort(host); err == nil {
		candidates = append(candidates, name)
	}

	for _, want := range candidates {
		for key, sc := range cf.Sites {
			if strings.ToLower(key) == want {
				return sc, true
			}
		}
	}
	return SiteConfig{}, false
}
