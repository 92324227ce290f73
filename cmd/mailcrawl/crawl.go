package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/mailcrawl/internal/config"
	"github.com/nao1215/mailcrawl/internal/crawler"
	"github.com/nao1215/mailcrawl/internal/link"
	mlog "github.com/nao1215/mailcrawl/internal/log"
	"github.com/nao1215/mailcrawl/internal/model"
	"github.com/nao1215/mailcrawl/internal/render"
	"github.com/nao1215/mailcrawl/internal/render/browser"
	"github.com/nao1215/mailcrawl/internal/render/httprender"
	"github.com/nao1215/mailcrawl/internal/report"
	"github.com/nao1215/mailcrawl/internal/scanner"
	"github.com/nao1215/mailcrawl/internal/site"
	"github.com/spf13/cobra"
)

// addCrawlFlags registers the crawl flags on cmd.
func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	// Logging
	f.BoolP("quiet", "q", false, "Log errors only")
	f.BoolP("verbose", "v", false, "Log progress and debug information")
	f.BoolP("trace", "t", false, "Log every link and trigger decision (implies --verbose)")
	f.Bool("log-json", false, "Write logs to stderr as JSON lines")

	// Crawl behavior
	f.StringP("config", "c", "",
		"Configuration file path (default: .mailcrawl in the current directory, XDG config or home)")
	f.IntP("depth", "d", config.DefaultMaxDepth, "Maximum recursion depth")
	f.IntP("concurrency", "j", config.DefaultConcurrency, "Number of crawl workers")
	f.String("renderer", config.RendererHTTP, "Page renderer: http or browser")
	f.Duration("timeout", config.DefaultTimeout, "Timeout for each page load and trigger activation")
	f.String("proxy", "", "SOCKS5 proxy (host:port or socks5://host:port)")
	f.String("user-agent", "", "User-Agent header (default: a desktop Firefox)")
	f.Int64("max-body-size", 0, "Maximum bytes read per page by the http renderer (0: 10MB)")
	f.String("trigger-selector", "", `CSS selector for route triggers (default: [ng-click*="changeRoute"])`)
	f.String("matcher", config.DefaultMatcher, "Candidate matcher: loose or strict")

	// Browser renderer
	f.String("remote-browser", "", "DevTools URL of a running Chrome (with --renderer browser)")
	f.Bool("no-stealth", false, "Do not hide automation fingerprints in the browser")
	f.Duration("settle", config.DefaultSettle, "How long the browser waits for a page to go idle")

	// Report
	f.String("format", config.DefaultFormat, "Report format: text, json or markdown")
	f.StringP("output", "o", "", "Write the report to a file (parent directories are created)")
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig assembles the configuration from defaults, the config
// file and flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	var err error
	if len(args) > 0 {
		cfg.Seed = args[0]
	}
	if cfg.Quiet, err = f.GetBool("quiet"); err != nil {
		return nil, err
	}
	if cfg.Verbose, err = f.GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.Trace, err = f.GetBool("trace"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = f.GetBool("log-json"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = f.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = f.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = f.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.Renderer, err = f.GetString("renderer"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = f.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = f.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = f.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = f.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.TriggerSelector, err = f.GetString("trigger-selector"); err != nil {
		return nil, err
	}
	if cfg.Matcher, err = f.GetString("matcher"); err != nil {
		return nil, err
	}
	if cfg.RemoteBrowser, err = f.GetString("remote-browser"); err != nil {
		return nil, err
	}
	noStealth, err := f.GetBool("no-stealth")
	if err != nil {
		return nil, err
	}
	cfg.Stealth = !noStealth
	if cfg.Settle, err = f.GetDuration("settle"); err != nil {
		return nil, err
	}
	if cfg.Format, err = f.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = f.GetString("output"); err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; a missing default one
	// just means no file.
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		if cfg.SiteConfigs, err = config.LoadConfigFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	// File values only fill in what the flags left at their defaults.
	if origin, err := site.DeriveOrigin(cfg.Seed); err == nil {
		sc := cfg.Site(origin.Host())
		if !f.Changed("depth") && sc.Depth > 0 {
			cfg.MaxDepth = sc.Depth
		}
		if cfg.TriggerSelector == "" {
			cfg.TriggerSelector = sc.TriggerSelector
		}
	}

	return cfg, nil
}

// runCrawl crawls cfg.Seed. Findings and the final counts go to stdout,
// or to stderr when a machine-readable report is printed on stdout.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	verbosity := mlog.VerbosityFromFlags(cfg.Quiet, cfg.Verbose, cfg.Trace)
	logger := mlog.NewSecureLogger(stderr, verbosity)
	if cfg.LogJSON {
		logger = mlog.NewSecureJSONLogger(stderr, verbosity)
	}
	slog.SetDefault(logger)

	origin, err := site.DeriveOrigin(cfg.Seed)
	if err != nil {
		return err
	}
	startURL, err := site.StartURL(cfg.Seed)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	matcher, err := scanner.MatcherByName(cfg.Matcher)
	if err != nil {
		return err
	}

	progress := stdout
	if format != report.FormatText && cfg.ReportFile == "" {
		progress = stderr
	}

	siteConfig := cfg.Site(origin.Host())
	renderer, err := newRenderer(ctx, cfg, origin, siteConfig, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Warn("failed to close renderer", "error", err)
		}
	}()

	engine := crawler.New(renderer, origin,
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
		crawler.WithClassifier(link.NewClassifier(origin, link.WithIgnorePatterns(siteConfig.IgnorePatterns))),
		crawler.WithScanner(scanner.New(matcher)),
		crawler.WithFindingHandler(func(f model.Finding) {
			fmt.Fprintf(progress, "%s  [at %s]\n", f.Candidate, f.Location)
		}),
	)

	logger.Info("starting crawl",
		"seed", cfg.Seed,
		"origin", origin.String(),
		"renderer", cfg.Renderer,
		"depth", cfg.MaxDepth,
		"concurrency", cfg.Concurrency,
	)

	result, err := engine.Crawl(ctx, startURL)
	if err != nil {
		return err
	}
	if result.Cancelled {
		logger.Warn("crawl interrupted, reporting partial results")
	}

	if err := writeReport(cfg, format, result, stdout); err != nil {
		return err
	}

	fmt.Fprintf(progress, "Visited: %d, Errored: %d\n", result.VisitedCount, result.ErroredCount)
	return nil
}

// newRenderer builds the renderer cfg selects.
func newRenderer(ctx context.Context, cfg *config.Config, origin site.Origin, sc config.SiteConfig, logger *slog.Logger) (render.Renderer, error) {
	headers := sc.RequestHeaders()

	switch cfg.Renderer {
	case config.RendererBrowser:
		r, err := browser.New(ctx, browser.Config{
			RemoteURL:       cfg.RemoteBrowser,
			Stealth:         cfg.Stealth,
			Proxy:           cfg.Proxy,
			TriggerSelector: cfg.TriggerSelector,
			Timeout:         cfg.Timeout,
			Settle:          cfg.Settle,
			UserAgent:       cfg.UserAgent,
			Headers:         headers,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.RendererHTTP:
		client, err := httprender.NewClient(cfg.Proxy, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		r, err := httprender.New(
			httprender.WithClient(client),
			httprender.WithOrigin(origin),
			httprender.WithUserAgent(cfg.UserAgent),
			httprender.WithHeaders(headers),
			httprender.WithMaxBodySize(cfg.MaxBodySize),
			httprender.WithTriggerSelector(cfg.TriggerSelector),
		)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownRenderer, cfg.Renderer)
	}
}

// writeReport writes the report to cfg.ReportFile, or to stdout. A JSON
// or Markdown report file is accompanied by a text report on stdout.
func writeReport(cfg *config.Config, format report.Format, result *model.CrawlReport, stdout io.Writer) (err error) {
	opts := report.Options{
		Verbose: cfg.Verbose || cfg.Trace,
		Version: getVersion(),
	}

	if cfg.ReportFile == "" {
		w, err := report.New(format, stdout, opts)
		if err != nil {
			return err
		}
		_, err = w.Write(result)
		return err
	}

	f, err := report.CreateFile(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	fileWriter, err := report.New(format, f, opts)
	if err != nil {
		return err
	}
	writers := []report.Writer{fileWriter}
	if format != report.FormatText {
		textWriter, err := report.New(report.FormatText, stdout, opts)
		if err != nil {
			return err
		}
		writers = append(writers, textWriter)
	}

	_, err = report.NewMultiWriter(writers...).Write(result)
	return err
}
