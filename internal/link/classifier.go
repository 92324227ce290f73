// Package link classifies raw href strings found in a page against the
// crawl's origin and decides which of them the crawler may follow.
package link

import (
	"html"
	"path"
	"regexp"
	"strings"

	"github.com/nao1215/mailcrawl/internal/site"
)

// Kind is the outcome of classifying one href.
type Kind int

const (
	// OutOfDomain hrefs point outside the origin, or are relative forms the
	// classifier does not resolve (page-relative paths, mailto:, javascript:).
	OutOfDomain Kind = iota
	// InDomainAbsolute hrefs are absolute URLs that start with the origin.
	InDomainAbsolute
	// InDomainRelative hrefs are root-relative ("/about").
	InDomainRelative
	// SkippedByType hrefs resolve inside the origin but point at an asset
	// that is never rendered as a page (images, stylesheets, documents...).
	SkippedByType
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case InDomainAbsolute:
		return "in-domain-absolute"
	case InDomainRelative:
		return "in-domain-relative"
	case SkippedByType:
		return "skipped-by-type"
	default:
		return "out-of-domain"
	}
}

// InDomain reports whether the kind is one the crawler follows.
func (k Kind) InDomain() bool {
	return k == InDomainAbsolute || k == InDomainRelative
}

// Record is the classification of one raw href.
// Resolved is set only when Kind is InDomainAbsolute or InDomainRelative.
type Record struct {
	Raw      string
	Kind     Kind
	Resolved string
}

// hrefAttr pulls the value out of markup such as `<a href="/x">`.
var hrefAttr = regexp.MustCompile(`(?i)\bhref\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// Classifier classifies hrefs for one origin.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	origin site.Origin

	// ignorePatterns are extra glob patterns matched against the URL path.
	ignorePatterns []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithIgnorePatterns adds glob patterns (e.g. "/admin/*", "*.zip") whose
// matches are classified as SkippedByType.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Classifier) {
		c.ignorePatterns = append(c.ignorePatterns, patterns...)
	}
}

// NewClassifier creates a Classifier for the given origin.
func NewClassifier(origin site.Origin, opts ...Option) *Classifier {
	c := &Classifier{origin: origin}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Origin returns the origin the classifier tests against.
func (c *Classifier) Origin() site.Origin {
	return c.origin
}

// Classify classifies a raw href. raw may be the bare attribute value or
// the markup of an element that carries an href attribute.
//
// An href starting with "//" names a host, not a path: it is resolved
// with the origin's scheme and classified as an absolute URL, so
// "//cdn.example.net/lib" is out of domain rather than the path
// "/cdn.example.net/lib" on the origin.
func (c *Classifier) Classify(raw string) Record {
	rec := Record{Raw: raw, Kind: OutOfDomain}

	href := HrefValue(raw)
	if href == "" {
		return rec
	}

	switch {
	case strings.HasPrefix(href, "//"):
		// Scheme-relative: borrow the origin's scheme, then treat as absolute.
		href = c.origin.Scheme() + ":" + href
		if c.origin.Contains(href) {
			rec.Kind, rec.Resolved = InDomainAbsolute, href
		}
	case c.origin.Contains(href):
		rec.Kind, rec.Resolved = InDomainAbsolute, href
	case strings.HasPrefix(href, "/"):
		rec.Kind, rec.Resolved = InDomainRelative, c.origin.Resolve(href)
	}

	if rec.Kind.InDomain() && c.skip(rec.Resolved) {
		rec.Kind, rec.Resolved = SkippedByType, ""
	}

	return rec
}

// Collect classifies every raw href and returns the resolved in-domain
// URLs, de-duplicated case-insensitively. The first spelling wins.
func (c *Classifier) Collect(raws ...string) []string {
	seen := make(map[string]bool, len(raws))
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		rec := c.Classify(raw)
		if !rec.Kind.InDomain() {
			continue
		}
		key := site.Key(rec.Resolved)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, rec.Resolved)
	}
	return out
}

// HrefValue returns the href carried by raw. If raw contains an href
// attribute, its (entity-decoded) value is returned; otherwise raw itself,
// trimmed. Pseudo-links and bare fragments yield "".
func HrefValue(raw string) string {
	href := raw
	if m := hrefAttr.FindStringSubmatch(raw); m != nil {
		href = m[1]
		if href == "" {
			href = m[2]
		}
		href = html.UnescapeString(href)
	}
	href = strings.TrimSpace(href)

	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	return href
}

// skip applies the skip-by-type policy to a resolved in-domain URL.
func (c *Classifier) skip(resolved string) bool {
	p, query := splitPath(resolved)
	lower := strings.ToLower(p)

	if skippedExtensions[path.Ext(lower)] {
		return true
	}
	if strings.Contains(lower, "/feed/") || strings.HasSuffix(lower, "/feed") ||
		strings.HasSuffix(lower, "/xmlrpc.php") {
		return true
	}
	if strings.EqualFold(query, "rsd") {
		return true
	}

	for _, pattern := range c.ignorePatterns {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// splitPath returns the path (starting at "/") and the raw query of an
// absolute URL, without parsing it: hrefs found in the wild are often
// not valid URLs.
func splitPath(resolved string) (string, string) {
	rest := resolved
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[i:]
	} else {
		rest = ""
	}
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}

	var query string
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}
	if rest == "" {
		rest = "/"
	}
	return rest, query
}
