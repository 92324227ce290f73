package site

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// ErrInvalidSeed is returned when a seed URL does not look like
// scheme://host[:port]/... with an http or https scheme.
var ErrInvalidSeed = errors.New("invalid seed URL: expected http(s)://host[:port]/...")

// seedPattern splits a slash-terminated seed into its origin prefix and
// the remaining path. The host part may not contain '/', '?' or '#'.
var seedPattern = regexp.MustCompile(`(?i)^(https?://[^/?#\s]+/)(.*)$`)

// Origin is the immutable scheme+host[+port] prefix of a crawl.
// It always ends in "/".
type Origin struct {
	prefix string
	scheme string
	host   string
}

// DeriveOrigin computes the origin of the crawl from the seed URL.
//
// The seed is given a trailing "/" before extraction, so a bare page such
// as "http://example.com" still yields "http://example.com/".
func DeriveOrigin(seed string) (Origin, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return Origin{}, ErrInvalidSeed
	}

	canonical := seed
	if !strings.HasSuffix(canonical, "/") {
		canonical += "/"
	}

	m := seedPattern.FindStringSubmatch(canonical)
	if m == nil {
		return Origin{}, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}

	u, err := url.Parse(m[1])
	if err != nil || u.Hostname() == "" || u.User != nil {
		return Origin{}, fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
	}

	return Origin{
		prefix: m[1],
		scheme: strings.ToLower(u.Scheme),
		host:   strings.ToLower(u.Host),
	}, nil
}

// MustOrigin is like DeriveOrigin but panics on an invalid seed.
// It is intended for tests and package-level fixtures.
func MustOrigin(seed string) Origin {
	o, err := DeriveOrigin(seed)
	if err != nil {
		panic(err)
	}
	return o
}

// String returns the origin prefix, e.g. "http://example.com:8080/".
func (o Origin) String() string {
	return o.prefix
}

// Scheme returns the lower-cased scheme of the origin.
func (o Origin) Scheme() string {
	return o.scheme
}

// Host returns the lower-cased host[:port] of the origin.
func (o Origin) Host() string {
	return o.host
}

// IsZero reports whether the origin was never derived.
func (o Origin) IsZero() bool {
	return o.prefix == ""
}

// Contains reports whether rawURL lies inside the origin.
// The comparison is a case-insensitive prefix test.
func (o Origin) Contains(rawURL string) bool {
	if o.prefix == "" || len(rawURL) < len(o.prefix) {
		return false
	}
	return strings.EqualFold(rawURL[:len(o.prefix)], o.prefix)
}

// Resolve joins a root-relative href onto the origin.
// Exactly one leading "/" is stripped, because the origin already ends in one.
func (o Origin) Resolve(rootRelative string) string {
	return o.prefix + strings.TrimPrefix(rootRelative, "/")
}

// StartURL returns the URL a crawl of seed starts from.
// The seed is kept verbatim unless it has no path at all, in which case
// the origin itself ("http://host/") is used.
func StartURL(seed string) (string, error) {
	o, err := DeriveOrigin(seed)
	if err != nil {
		return "", err
	}
	seed = strings.TrimSpace(seed)
	if len(seed)+1 == len(o.prefix) {
		return o.prefix, nil
	}
	return seed, nil
}

// Key returns the comparison key for a URL. Two URLs that differ only in
// letter case map to the same key.
func Key(rawURL string) string {
	// A Caser must not be shared between goroutines.
	return cases.Fold().String(rawURL)
}
