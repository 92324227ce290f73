package report

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/nao1215/mailcrawl/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// errorKinds is the fixed display order of error kinds.
var errorKinds = []model.ErrorKind{
	model.ErrorKindFetch,
	model.ErrorKindActivation,
	model.ErrorKindNavigation,
	model.ErrorKindRecursionLimit,
}

// MarkdownWriter outputs reports as Markdown, for sharing or committing
// next to other documentation. It uses nao1215/markdown for tables,
// GitHub alerts and a mermaid pie chart of error kinds.
type MarkdownWriter struct {
	baseWriter
	version string
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownVersion adds the mailcrawl version to the footer.
func WithMarkdownVersion(version string) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.version = version
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeCandidates(md, report)
	w.writeFindings(md, report)
	w.writeErrors(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("mailcrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Seed + "`"},
			{"Origin", "`" + report.Origin + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
			{"Visited", strconv.Itoa(report.VisitedCount)},
			{"Errored", strconv.Itoa(report.ErroredCount)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")

	switch {
	case report.Cancelled:
		md.Warningf("The crawl was interrupted before every page was visited. Results are partial.")
	case report.ErroredCount > 0:
		md.Importantf("%d URL(s) could not be crawled. See the errors section.", report.ErroredCount)
	default:
		md.Tip("Every reachable page of the site was visited.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCandidates(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Candidates")
	md.PlainText("")

	candidates := report.Candidates()
	if len(candidates) == 0 {
		md.PlainText("No email-like strings were found.")
		md.PlainText("")
		return
	}

	quoted := make([]string, len(candidates))
	for i, c := range candidates {
		quoted[i] = "`" + c + "`"
	}
	md.BulletList(quoted...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Findings) == 0 {
		return
	}

	md.H2("Findings")
	md.PlainText("")

	rows := make([][]string, len(report.Findings))
	for i, f := range report.Findings {
		rows[i] = []string{"`" + f.Candidate + "`", truncateString(f.Location, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Candidate", "Page"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, report *model.CrawlReport) {
	if len(report.Errors) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")

	counts := report.ErrorsByKind()
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Errors by kind"),
		piechart.WithShowData(true),
	)
	for _, kind := range errorKinds {
		if n := counts[kind]; n > 0 {
			chart.LabelAndIntValue(string(kind), uint64(n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	errs := slices.Clone(report.Errors)
	slices.SortStableFunc(errs, func(a, b model.PageError) int {
		return slices.Index(errorKinds, a.Kind) - slices.Index(errorKinds, b.Kind)
	})

	rows := make([][]string, len(errs))
	for i, e := range errs {
		rows[i] = []string{string(e.Kind), truncateString(e.URL, 60), truncateString(e.Message, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "URL", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	if w.version != "" {
		md.PlainTextf("*Report generated by mailcrawl %s*", w.version)
		return
	}
	md.PlainText("*Report generated by mailcrawl*")
}

// statusText summarizes how the crawl ended.
func statusText(report *model.CrawlReport) string {
	switch {
	case report.Cancelled:
		return "Interrupted (partial results)"
	case report.ErroredCount > 0:
		return "Complete with errors"
	default:
		return "Complete"
	}
}

// truncateString shortens s to maxLen bytes, ending in "...".
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
