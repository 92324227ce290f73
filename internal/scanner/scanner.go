// Package scanner extracts email-like candidates from page text.
//
// The Scanner is a thin consumer of a Matcher. Matching policy lives in the
// Matcher so it can be tightened or swapped without touching the crawler.
// Two matchers are provided:
//
//   - LooseMatcher favors recall. It splits text into tokens and accepts
//     anything shaped like local@domain.tld, including unusual TLDs.
//   - StrictMatcher favors precision with a conventional address regex.
//
// Results are advisory. False positives are expected.
package scanner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/nao1215/mailcrawl/internal/model"
)

// ErrUnknownMatcher is returned by MatcherByName for an unsupported name.
var ErrUnknownMatcher = errors.New("unknown matcher")

// Matcher returns the email-like candidates found in one blob of text.
// A Matcher must be safe for concurrent use.
type Matcher func(text string) []string

// Matcher names accepted by MatcherByName.
const (
	MatcherLoose  = "loose"
	MatcherStrict = "strict"
)

// MatcherByName returns the matcher registered under name.
func MatcherByName(name string) (Matcher, error) {
	switch strings.ToLower(name) {
	case "", MatcherLoose:
		return LooseMatcher, nil
	case MatcherStrict:
		return StrictMatcher, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatcher, name)
	}
}

// isDelimiter reports whether r separates tokens. These are characters
// that cannot appear inside a plausible address.
func isDelimiter(r rune) bool {
	switch r {
	case ',', '?', '!', '_', ';', ':', '=', '<', '>', '(', ')', '"':
		return true
	}
	return unicode.IsSpace(r)
}

// LooseMatcher splits text on whitespace and common punctuation and keeps
// every token that has an '@' after its first character, a '.' at least
// two characters after the '@', and at least one character after the
// final '.'.
func LooseMatcher(text string) []string {
	if !strings.Contains(text, "@") {
		return nil
	}

	var out []string
	for _, tok := range strings.FieldsFunc(text, isDelimiter) {
		if isCandidate(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func isCandidate(tok string) bool {
	at := strings.IndexByte(tok, '@')
	if at <= 0 {
		return false
	}
	dot := strings.LastIndexByte(tok, '.')
	return dot >= at+2 && dot < len(tok)-1
}

var strictPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// StrictMatcher returns substrings matching a conventional address
// pattern with an alphabetic top-level domain of two or more letters.
func StrictMatcher(text string) []string {
	if !strings.Contains(text, "@") {
		return nil
	}
	return strictPattern.FindAllString(text, -1)
}

// Scanner applies a Matcher to the text of one page.
type Scanner struct {
	match Matcher
}

// New creates a Scanner. A nil matcher selects LooseMatcher.
func New(m Matcher) *Scanner {
	if m == nil {
		m = LooseMatcher
	}
	return &Scanner{match: m}
}

// Scan runs the matcher over every text and comment blob of the page at
// pageURL. Each candidate is reported once per page, in the order it was
// first seen, tagged with pageURL.
func (s *Scanner) Scan(pageURL string, texts []string) []model.Finding {
	seen := make(map[string]bool)
	var findings []model.Finding
	for _, text := range texts {
		for _, c := range s.match(text) {
			if seen[c] {
				continue
			}
			seen[c] = true
			findings = append(findings, model.Finding{Candidate: c, Location: pageURL})
		}
	}
	return findings
}
