package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/mailcrawl/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for the terminal.
//
// Design decision: plain ASCII, no colors, so the output pipes cleanly
// into files and other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints sections that have nothing to list.
	showEmpty bool

	// verbose adds the list of visited pages.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose adds every visited page to the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeCandidates(&sb, report)
	w.writeFindings(&sb, report)
	w.writePages(&sb, report)
	w.writeErrors(&sb, report)
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                          MAILCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:       %s\n", report.Seed)
	fmt.Fprintf(sb, "Origin:     %s\n", report.Origin)
	fmt.Fprintf(sb, "Started:    %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:   %s\n", report.Duration.Round(time.Millisecond))

	switch {
	case report.Cancelled:
		sb.WriteString("Status:     INTERRUPTED (partial results)\n")
	case report.ErroredCount > 0:
		fmt.Fprintf(sb, "Status:     Complete with %d errored URL(s)\n", report.ErroredCount)
	default:
		sb.WriteString("Status:     Complete\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeCandidates(sb *strings.Builder, report *model.CrawlReport) {
	candidates := report.Candidates()
	if len(candidates) == 0 && !w.showEmpty {
		return
	}

	w.section(sb, fmt.Sprintf("CANDIDATES (%d)", len(candidates)))
	if len(candidates) == 0 {
		sb.WriteString("  No email-like strings found\n\n")
		return
	}
	for _, c := range candidates {
		fmt.Fprintf(sb, "  [+] %s\n", c)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Findings) == 0 && !w.showEmpty {
		return
	}

	w.section(sb, "FINDINGS")
	if len(report.Findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}
	for _, f := range report.Findings {
		fmt.Fprintf(sb, "  * %s\n", f.Candidate)
		fmt.Fprintf(sb, "    Location: %s\n", f.Location)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	if !w.verbose {
		return
	}

	w.section(sb, fmt.Sprintf("PAGES (%d)", len(report.Pages)))
	for _, p := range report.Pages {
		kind := "static"
		if p.Dynamic {
			kind = "dynamic"
		}
		fmt.Fprintf(sb, "  [%d] %s (%s, %d candidate(s))\n", p.Depth, p.URL, kind, p.Findings)
		fmt.Fprintf(sb, "      sha3: %s\n", p.Fingerprint)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeErrors(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Errors) == 0 && !w.showEmpty {
		return
	}

	w.section(sb, "ERRORS")
	if len(report.Errors) == 0 {
		sb.WriteString("  No errors\n\n")
		return
	}

	byKind := make(map[model.ErrorKind][]model.PageError)
	for _, e := range report.Errors {
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}
	for _, kind := range errorKinds {
		errs := byKind[kind]
		if len(errs) == 0 {
			continue
		}
		fmt.Fprintf(sb, "[%s] %d\n", kind, len(errs))
		for _, e := range errs {
			fmt.Fprintf(sb, "  * %s\n", e.URL)
			if w.verbose && e.Message != "" {
				fmt.Fprintf(sb, "    %s\n", e.Message)
			}
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Visited: %d  Errored: %d  Findings: %d\n",
		report.VisitedCount, report.ErroredCount, len(report.Findings))
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
