package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Finding is one email-like candidate string and its provenance.
// The same candidate found on two pages yields two findings.
type Finding struct {
	// Candidate is the matched text, e.g. "jane.doe@example.com".
	Candidate string `json:"candidate"`

	// Location is the URL of the page the candidate was found on.
	Location string `json:"location"`
}

// PageRecord describes a page the crawler loaded and processed.
type PageRecord struct {
	// URL is the canonical URL the page was registered under.
	URL string `json:"url"`

	// Depth is the number of hops from the start URL (static or dynamic).
	Depth int `json:"depth"`

	// Dynamic is true when the page was reached by activating an in-page
	// trigger rather than by loading a URL.
	Dynamic bool `json:"dynamic"`

	// Fingerprint is a SHA3-256 digest of the page's text content.
	// Pages with identical text share a fingerprint.
	Fingerprint string `json:"fingerprint"`

	// Findings is the number of distinct candidates found on the page.
	Findings int `json:"findings"`
}

// Fingerprint returns the hex SHA3-256 digest of a page's text blobs.
// Blobs are separated by a NUL byte so that ["ab", "c"] and ["a", "bc"]
// differ.
func Fingerprint(texts []string) string {
	h := sha3.New256()
	for _, t := range texts {
		h.Write([]byte(t))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
