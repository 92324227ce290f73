package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxDepth != 100 {
		t.Errorf("MaxDepth = %d, want 100", cfg.MaxDepth)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("Concurrency = %d, want 1", cfg.Concurrency)
	}
	if cfg.Renderer != RendererHTTP {
		t.Errorf("Renderer = %q, want %q", cfg.Renderer, RendererHTTP)
	}
	if cfg.Matcher != "loose" || cfg.Format != "text" {
		t.Errorf("Matcher, Format = %q, %q", cfg.Matcher, cfg.Format)
	}
	if !cfg.Stealth {
		t.Error("expected stealth to be on by default")
	}
	if cfg.Seed != "" || cfg.ReportFile != "" || cfg.SiteConfigs != nil {
		t.Error("expected seed, report file and site configs to be empty")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Seed = "http://example.com/"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "defaults with seed", modify: func(*Config) {}},
		{name: "missing seed", modify: func(c *Config) { c.Seed = "" }, wantErr: ErrNoSeed},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative depth", modify: func(c *Config) { c.MaxDepth = -1 }, wantErr: ErrInvalidDepth},
		{name: "zero depth", modify: func(c *Config) { c.MaxDepth = 0 }},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "unknown renderer", modify: func(c *Config) { c.Renderer = "lynx" }, wantErr: ErrUnknownRenderer},
		{name: "browser renderer", modify: func(c *Config) { c.Renderer = RendererBrowser }},
		{
			name: "remote browser with http renderer",
			modify: func(c *Config) {
				c.RemoteBrowser = "ws://127.0.0.1:9222/devtools/browser/x"
			},
			wantErr: ErrRemoteBrowserNeedsBrowser,
		},
		{
			name: "remote browser with browser renderer",
			modify: func(c *Config) {
				c.Renderer = RendererBrowser
				c.RemoteBrowser = "ws://127.0.0.1:9222/devtools/browser/x"
			},
		},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: SiteConfig{
			Headers:        map[string]string{"Accept-Language": "en"},
			Depth:          5,
			IgnorePatterns: []string{"/admin/*"},
		},
		Sites: map[string]SiteConfig{
			"Example.com": {
				Cookie:          "sid=1",
				Headers:         map[string]string{"X-Team": "a"},
				TriggerSelector: "[data-route]",
			},
			"example.com:8080": {
				Depth:          2,
				IgnorePatterns: []string{"/private/*"},
			},
		},
	}

	t.Run("unknown host gets defaults", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("other.org")
		if got.Depth != 5 || len(got.IgnorePatterns) != 1 || got.Headers["Accept-Language"] != "en" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("site overrides merge with defaults", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("example.com")
		if got.Cookie != "sid=1" || got.TriggerSelector != "[data-route]" {
			t.Errorf("got %+v", got)
		}
		if got.Depth != 5 {
			t.Errorf("Depth = %d, want the default 5", got.Depth)
		}
		if got.Headers["Accept-Language"] != "en" || got.Headers["X-Team"] != "a" {
			t.Errorf("Headers = %v", got.Headers)
		}
	})

	t.Run("host with port prefers the exact entry", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("example.com:8080")
		if got.Depth != 2 || got.IgnorePatterns[0] != "/private/*" {
			t.Errorf("got %+v", got)
		}
		if got.Cookie != "" {
			t.Errorf("Cookie = %q, the bare host entry must not apply", got.Cookie)
		}
	})

	t.Run("host with unknown port falls back to the host name", func(t *testing.T) {
		t.Parallel()

		got := cf.GetSiteConfig("EXAMPLE.com:9000")
		if got.Cookie != "sid=1" {
			t.Errorf("Cookie = %q, want sid=1", got.Cookie)
		}
	})

	t.Run("merging does not modify defaults", func(t *testing.T) {
		t.Parallel()

		_ = cf.GetSiteConfig("example.com")
		if _, ok := cf.Defaults.Headers["X-Team"]; ok {
			t.Error("site headers leaked into defaults")
		}
	})
}

func TestSiteConfigRequestHeaders(t *testing.T) {
	t.Parallel()

	if got := (SiteConfig{}).RequestHeaders(); len(got) != 0 {
		t.Errorf("expected no headers, got %v", got)
	}

	sc := SiteConfig{Cookie: "a=b", Headers: map[string]string{"X-A": "1"}}
	got := sc.RequestHeaders()
	if got["Cookie"] != "a=b" || got["X-A"] != "1" {
		t.Errorf("got %v", got)
	}
	if _, ok := sc.Headers["Cookie"]; ok {
		t.Error("RequestHeaders modified the site headers")
	}
}

func TestConfigSite(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if got := cfg.Site("example.com"); got.Depth != 0 || got.Headers != nil {
		t.Errorf("expected zero SiteConfig without a file, got %+v", got)
	}

	cfg.SiteConfigs = &File{Sites: map[string]SiteConfig{"example.com": {Depth: 3}}}
	if got := cfg.Site("example.com"); got.Depth != 3 {
		t.Errorf("Depth = %d, want 3", got.Depth)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".mailcrawl")
		content := `defaults:
  depth: 10
  headers:
    Accept-Language: ja
sites:
  example.com:
    cookie: "sid=abc"
    ignorePatterns:
      - "/wp-admin/*"
    triggerSelector: "a[data-route]"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.Depth != 10 || cf.Defaults.Headers["Accept-Language"] != "ja" {
			t.Errorf("Defaults = %+v", cf.Defaults)
		}
		site := cf.Sites["example.com"]
		if site.Cookie != "sid=abc" || site.IgnorePatterns[0] != "/wp-admin/*" || site.TriggerSelector != "a[data-route]" {
			t.Errorf("site = %+v", site)
		}
	})

	t.Run("empty file has an empty sites map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".mailcrawl")
		if err := os.WriteFile(path, nil, 0600); err != nil {
			t.Fatal(err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil {
			t.Error("expected non-nil Sites")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("err = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".mailcrawl")
		if err := os.WriteFile(path, []byte("sites: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		_, err := LoadConfigFile(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("err = %v, want a parse error", err)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile = %q, want %q", got, path)
		}
	})

	t.Run("explicit path that does not exist", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}

func TestFirstExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	second := filepath.Join(dir, "second")
	third := filepath.Join(dir, "third")
	for _, p := range []string{second, third} {
		if err := os.WriteFile(p, nil, 0600); err != nil {
			t.Fatal(err)
		}
	}

	if got := firstExisting([]string{filepath.Join(dir, "first"), dir, second, third}); got != second {
		t.Errorf("firstExisting = %q, want %q", got, second)
	}
	if got := firstExisting(nil); got != "" {
		t.Errorf("firstExisting(nil) = %q", got)
	}
}

func TestXDGConfigDir(t *testing.T) {
	t.Parallel()

	if dir := XDGConfigDir(); filepath.Base(dir) != AppName {
		t.Errorf("XDGConfigDir = %q, want it to end in %q", dir, AppName)
	}
}
