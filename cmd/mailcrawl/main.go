// Package main provides the entry point for the mailcrawl CLI.
//
// mailcrawl crawls one site, following static links and client-side
// route triggers, and reports every email-like string it finds.
//
// Usage:
//
//	mailcrawl http://example.com/
//	mailcrawl --renderer browser -v https://example.com/app/
//
// See --help for all available options.
package main

import "os"

func main() {
	os.Exit(Execute())
}
