package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/mailcrawl/internal/model"
)

// JSONWriter outputs reports as JSON for programmatic processing.
//
// Design decision: the report structs carry their own json tags, so
// encoding/json is all that is needed here.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output; compact otherwise.
	indent       bool
	indentPrefix string
	indentString string

	// version is added to the envelope when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the mailcrawl version in the output envelope.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the JSON envelope: the report plus fields derived from it
// that consumers would otherwise recompute.
type JSONReport struct {
	Version    string                  `json:"version,omitempty"`
	Complete   bool                    `json:"complete"`
	Candidates []string                `json:"candidates"`
	ErrorKinds map[model.ErrorKind]int `json:"error_kinds"`
	Report     *model.CrawlReport      `json:"report"`
}

// Write outputs the report wrapped in a JSONReport.
func (w *JSONWriter) Write(report *model.CrawlReport) (int, error) {
	return w.writeJSON(&JSONReport{
		Version:    w.version,
		Complete:   report.Complete(),
		Candidates: report.Candidates(),
		ErrorKinds: report.ErrorsByKind(),
		Report:     report,
	})
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
