// Package crawler walks one site and reports the email-like strings it
// finds.
//
// # Architecture
//
// The Engine pulls work items ({url, depth}) from a last-in-first-out
// frontier, so a single worker explores the site depth-first. For each
// page it:
//
//  1. claims the URL in the visited registry (skipping known URLs)
//  2. loads the page through a render.Session
//  3. scans the page text for candidates and streams them out
//  4. collects static links, before anything can change the document
//  5. activates every in-page trigger, one at a time. Each trigger
//     navigates the session. Landings outside the site or on known URLs
//     are unwound with GoBack. New landings are processed like pages and
//     then unwound so the next trigger sees the original document.
//  6. pushes the static links that are not yet known
//
// # Concurrency
//
// WithConcurrency starts several workers. Each worker owns one session,
// so triggers and back navigation never cross sessions. The registry's
// Claim is atomic, which keeps any URL from being fetched twice.
//
// # Errors
//
// A page that fails to load, a trigger that fails to activate, a failed
// back navigation, and a branch that goes deeper than the depth limit are
// all recorded in the report and the crawl goes on. Only failing to open
// a renderer session aborts a crawl.
//
// # Usage
//
//	engine := crawler.New(renderer, origin, crawler.WithMaxDepth(20))
//	report, err := engine.Crawl(ctx, "http://example.com/")
package crawler
