package log

import (
	"fmt"
	"io"
	"log/slog"
)

// LevelTrace is below slog.LevelDebug. It is used for per-link and
// per-trigger decisions, which are too noisy for debug output.
const LevelTrace = slog.Level(-8)

// Verbosity selects how much the CLI logs.
type Verbosity int

const (
	// Quiet logs errors only.
	Quiet Verbosity = iota - 1
	// Normal logs warnings and errors.
	Normal
	// Verbose adds info and debug messages.
	Verbose
	// Trace adds every link and trigger decision.
	Trace
)

// String returns the verbosity's name.
func (v Verbosity) String() string {
	switch v {
	case Quiet:
		return "quiet"
	case Normal:
		return "normal"
	case Verbose:
		return "verbose"
	case Trace:
		return "trace"
	default:
		return fmt.Sprintf("verbosity(%d)", int(v))
	}
}

// Level returns the minimum slog level logged at this verbosity.
func (v Verbosity) Level() slog.Level {
	switch {
	case v <= Quiet:
		return slog.LevelError
	case v == Normal:
		return slog.LevelWarn
	case v == Verbose:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// VerbosityFromFlags maps the CLI flags to a Verbosity. Trace wins over
// verbose, which wins over quiet.
func VerbosityFromFlags(quiet, verbose, trace bool) Verbosity {
	switch {
	case trace:
		return Trace
	case verbose:
		return Verbose
	case quiet:
		return Quiet
	default:
		return Normal
	}
}

// replaceLevel names LevelTrace "TRACE" instead of "DEBUG-4".
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		return slog.String(slog.LevelKey, "TRACE")
	}
	return a
}

// NewSecureLogger returns a text logger on w that masks sensitive values.
func NewSecureLogger(w io.Writer, v Verbosity) *slog.Logger {
	opts := &slog.HandlerOptions{Level: v.Level(), ReplaceAttr: replaceLevel}
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, opts)))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, v Verbosity) *slog.Logger {
	opts := &slog.HandlerOptions{Level: v.Level(), ReplaceAttr: replaceLevel}
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, opts)))
}
