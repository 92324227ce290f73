package model

import (
	"slices"
	"time"
)

// ErrorKind classifies a recoverable crawl error.
type ErrorKind string

const (
	// ErrorKindFetch means a URL could not be loaded. The URL is errored.
	ErrorKindFetch ErrorKind = "fetch"

	// ErrorKindActivation means an in-page trigger could not be activated.
	// Only that trigger is skipped.
	ErrorKindActivation ErrorKind = "activation"

	// ErrorKindNavigation means returning to the previous document failed.
	// The crawl continues from whatever document the session holds.
	ErrorKindNavigation ErrorKind = "navigation"

	// ErrorKindRecursionLimit means a branch went deeper than allowed.
	// The URL is errored and the branch abandoned.
	ErrorKindRecursionLimit ErrorKind = "recursion-limit"
)

// PageError records one recoverable failure and the URL it concerns.
type PageError struct {
	URL     string    `json:"url"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// CrawlReport is the result of one crawl.
type CrawlReport struct {
	// Seed is the URL the user asked to crawl.
	Seed string `json:"seed"`

	// Origin is the site boundary derived from the seed.
	Origin string `json:"origin"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the crawl ran.
	Duration time.Duration `json:"duration"`

	// Pages lists every page that was visited, in visiting order.
	Pages []PageRecord `json:"pages"`

	// Findings lists every candidate in the order it was found.
	Findings []Finding `json:"findings"`

	// Errors lists every recoverable failure.
	Errors []PageError `json:"errors"`

	// VisitedCount and ErroredCount come from the visited registry.
	VisitedCount int `json:"visited_count"`
	ErroredCount int `json:"errored_count"`

	// Cancelled is true when the crawl stopped before the frontier was
	// exhausted (interrupt or deadline). Results are partial.
	Cancelled bool `json:"cancelled"`
}

// NewCrawlReport creates an empty report for a crawl of seed.
func NewCrawlReport(seed, origin string) *CrawlReport {
	return &CrawlReport{
		Seed:      seed,
		Origin:    origin,
		StartedAt: time.Now(),
		Pages:     make([]PageRecord, 0),
		Findings:  make([]Finding, 0),
		Errors:    make([]PageError, 0),
	}
}

// Candidates returns the distinct candidate strings, sorted.
func (r *CrawlReport) Candidates() []string {
	seen := make(map[string]bool, len(r.Findings))
	out := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		if !seen[f.Candidate] {
			seen[f.Candidate] = true
			out = append(out, f.Candidate)
		}
	}
	slices.Sort(out)
	return out
}

// ErrorsByKind counts errors per kind.
func (r *CrawlReport) ErrorsByKind() map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, e := range r.Errors {
		counts[e.Kind]++
	}
	return counts
}

// Complete reports whether the crawl ran to frontier exhaustion with no
// errored pages.
func (r *CrawlReport) Complete() bool {
	return !r.Cancelled && r.ErroredCount == 0
}
