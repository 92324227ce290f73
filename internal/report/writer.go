package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/mailcrawl/internal/model"
)

// ErrUnknownFormat is returned for a report format name that has no writer.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names a report format.
type Format string

const (
	// FormatText is the human-readable terminal report.
	FormatText Format = "text"
	// FormatJSON is indented JSON for tool integration.
	FormatJSON Format = "json"
	// FormatMarkdown is a Markdown document with tables and alerts.
	FormatMarkdown Format = "markdown"
)

// ParseFormat returns the Format for name. The empty string means text;
// "md" is accepted for markdown.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(FormatText):
		return FormatText, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json or markdown)", ErrUnknownFormat, name)
	}
}

// Writer renders a crawl report to some destination.
//
// Design decision: every format implements the same interface so the CLI
// can pick one at runtime and MultiWriter can fan a report out to
// several destinations (terminal and file) without knowing the formats.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.CrawlReport) (int, error)
}

// Options are the settings New passes on to the writer it builds.
type Options struct {
	// Verbose lists every visited page in text reports.
	Verbose bool
	// Version is stamped into JSON and Markdown reports.
	Version string
}

// New returns the writer for format on output.
func New(format Format, output io.Writer, opts Options) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output, WithVerbose(opts.Verbose)), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(opts.Version)), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, WithMarkdownVersion(opts.Version)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes the same report to several Writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every Writer in order and returns the
// total byte count. It stops at the first error.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// CreateFile creates (or truncates) the report file at path with 0600
// permissions, creating missing parent directories. Reports list every
// address found on a site, so they are not world-readable.
func CreateFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return f, nil
}
