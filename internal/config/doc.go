// Package config holds the crawl settings assembled from defaults, the
// optional .mailcrawl YAML file and command-line flags, in that order of
// increasing precedence.
package config
