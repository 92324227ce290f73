package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: package-level sentinels let callers use errors.Is
// while the messages stay readable on the command line.
var (
	// ErrNoSeed is returned when no seed URL was given.
	ErrNoSeed = errors.New("no seed specified: provide the URL to crawl")

	// ErrInvalidTimeout is returned when the per-request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDepth is returned for a negative depth limit. Zero means
	// only the start page.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrUnknownRenderer is returned for a renderer other than http or browser.
	ErrUnknownRenderer = errors.New("unknown renderer: must be http or browser")

	// ErrRemoteBrowserNeedsBrowser is returned when a remote browser URL is
	// given together with the http renderer.
	ErrRemoteBrowserNeedsBrowser = errors.New("--remote-browser requires --renderer browser")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Zero means the renderer's default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
