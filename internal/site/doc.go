// Package site defines the boundary of a crawl.
//
// A crawl is confined to one origin: the scheme, host and optional port of
// the seed URL, written as a prefix that ends in "/". Every URL the crawler
// is allowed to load starts with that prefix, compared case-insensitively.
//
// # Usage
//
//	origin, err := site.DeriveOrigin("http://example.com/blog")
//	if err != nil {
//	    return err // wraps site.ErrInvalidSeed
//	}
//	origin.Contains("HTTP://EXAMPLE.COM/about") // true
//	origin.Resolve("/about")                    // "http://example.com/about"
package site
