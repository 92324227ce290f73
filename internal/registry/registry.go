// Package registry records which URLs a crawl has already dealt with.
//
// The Registry is the only thing that stops the crawler from looping on
// cyclic link graphs. A URL moves through three states:
//
//	unknown -> claimed (fetch in progress) -> visited | errored
//
// Claimed, visited and errored URLs are all "known": the crawler never
// attempts them again. No entry is ever removed during a run.
package registry

import (
	"slices"
	"sync"

	"github.com/nao1215/mailcrawl/internal/site"
)

// state is the lifecycle state of a known URL.
type state int

const (
	stateClaimed state = iota + 1
	stateVisited
	stateErrored
)

// entry keeps the first spelling of a URL next to its state.
type entry struct {
	url   string
	state state
}

// Registry tracks visited and errored URLs, case-insensitively.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	visited int
	errored int
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// HasBeenVisited reports whether url is claimed, visited or errored.
func (r *Registry) HasBeenVisited(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[site.Key(url)]
	return ok
}

// Claim atomically checks and marks url as being fetched.
// It returns false if the URL is already known, in which case the caller
// must not fetch it.
func (r *Registry) Claim(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := site.Key(url)
	if _, ok := r.entries[key]; ok {
		return false
	}
	r.entries[key] = &entry{url: url, state: stateClaimed}
	return true
}

// MarkVisited records url as successfully loaded and processed.
// It has no effect if url already reached a terminal state.
func (r *Registry) MarkVisited(url string) {
	r.finish(url, stateVisited)
}

// MarkErrored records url as failed. It has no effect if url already
// reached a terminal state.
func (r *Registry) MarkErrored(url string) {
	r.finish(url, stateErrored)
}

func (r *Registry) finish(url string, to state) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := site.Key(url)
	e, ok := r.entries[key]
	switch {
	case !ok:
		e = &entry{url: url}
		r.entries[key] = e
	case e.state != stateClaimed:
		return
	}

	e.state = to
	if to == stateVisited {
		r.visited++
	} else {
		r.errored++
	}
}

// Summary returns the number of visited and errored URLs.
// URLs still being fetched are not counted.
func (r *Registry) Summary() (visited, errored int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visited, r.errored
}

// Visited returns the visited URLs, sorted.
func (r *Registry) Visited() []string {
	return r.list(stateVisited)
}

// Errored returns the errored URLs, sorted.
func (r *Registry) Errored() []string {
	return r.list(stateErrored)
}

func (r *Registry) list(s state) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0)
	for _, e := range r.entries {
		if e.state == s {
			out = append(out, e.url)
		}
	}
	slices.Sort(out)
	return out
}
