package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "mailcrawl"

	// DefaultTimeout bounds each page load, trigger activation and back
	// navigation.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth bounds how many hops (static links plus trigger
	// activations) a branch may go from the start page.
	DefaultMaxDepth = 100

	// DefaultConcurrency of 1 crawls depth-first in one session, which
	// gives a stable visiting order.
	DefaultConcurrency = 1

	// DefaultSettle is how long the browser renderer waits for a page to
	// go idle after it loads.
	DefaultSettle = 500 * time.Millisecond

	// DefaultMatcher is the candidate matcher name.
	DefaultMatcher = "loose"

	// DefaultFormat is the report format name.
	DefaultFormat = "text"
)

// Renderer names.
const (
	// RendererHTTP fetches pages over plain HTTP and resolves triggers
	// from their markup. It needs no browser.
	RendererHTTP = "http"

	// RendererBrowser drives headless Chrome, so client-side routes run
	// for real.
	RendererBrowser = "browser"
)

// Config holds every option of one crawl.
//
// Design decision: one flat struct built from flags and passed down,
// rather than global state. Empty string fields mean "use the
// component's default".
type Config struct {
	// Seed is the URL the crawl starts from and whose origin bounds it.
	Seed string

	// Timeout bounds each load, activation and back navigation.
	Timeout time.Duration

	// MaxDepth is the recursion limit. Zero crawls only the start page.
	MaxDepth int

	// Concurrency is the number of crawl workers, each with its own
	// renderer session.
	Concurrency int

	// Renderer is RendererHTTP or RendererBrowser.
	Renderer string

	// TriggerSelector is the CSS selector for in-page navigation triggers.
	TriggerSelector string

	// Proxy is a SOCKS5 proxy ("host:port" or "socks5://host:port").
	Proxy string

	// UserAgent overrides the renderer's User-Agent.
	UserAgent string

	// MaxBodySize limits how many bytes the HTTP renderer reads per page.
	MaxBodySize int64

	// Matcher selects the candidate matcher ("loose" or "strict").
	Matcher string

	// Format selects the report format ("text", "json" or "markdown").
	Format string

	// ReportFile is where the report is written. Empty means stdout.
	ReportFile string

	// RemoteBrowser is the DevTools URL of an already running Chrome.
	RemoteBrowser string

	// Stealth hides automation fingerprints in the browser renderer.
	Stealth bool

	// Settle is the browser renderer's idle wait after a load.
	Settle time.Duration

	// Quiet, Verbose and Trace select the log verbosity.
	Quiet   bool
	Verbose bool
	Trace   bool

	// LogJSON writes logs as JSON lines instead of text.
	LogJSON bool

	// ConfigFilePath is an explicit configuration file. When empty the
	// file is searched for (see FindConfigFile).
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, if any.
	SiteConfigs *File
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxDepth:    DefaultMaxDepth,
		Concurrency: DefaultConcurrency,
		Renderer:    RendererHTTP,
		Settle:      DefaultSettle,
		Matcher:     DefaultMatcher,
		Format:      DefaultFormat,
		Stealth:     true,
	}
}

// XDGConfigDir returns the XDG config directory for mailcrawl
// (~/.config/mailcrawl on Linux).
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Site returns the merged configuration file settings for host. It is
// the zero SiteConfig when no file was loaded.
func (c *Config) Site(host string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(host)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	switch c.Renderer {
	case RendererHTTP:
		if c.RemoteBrowser != "" {
			return ErrRemoteBrowserNeedsBrowser
		}
	case RendererBrowser:
	default:
		return ErrUnknownRenderer
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
