// Package report renders a model.CrawlReport.
//
// Three formats share the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: JSON wrapped in a JSONReport envelope
//   - MarkdownWriter: tables, alerts and an error pie chart
//
// New picks a writer by Format; MultiWriter fans one report out to
// several writers. CreateFile opens a report file with owner-only
// permissions.
package report
