// Package render defines the contract between the crawler and whatever
// loads pages for it.
//
// A Renderer hands out Sessions. A Session is the analog of one browser tab:
// it holds the current document and a history of previous ones, and it can
// load a URL, activate an in-page trigger, or go back. Trigger handles are
// only valid against the document that produced them, so a Session must
// never be used by more than one goroutine at a time.
//
// Implementations live in sub-packages:
//
//   - httprender: plain HTTP fetches, HTML parsed in-process
//   - browser: a headless Chrome driven through go-rod
//   - memsite: an in-memory site used by tests
package render

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrFetch is returned when a URL could not be loaded.
	ErrFetch = errors.New("fetch failed")

	// ErrActivation is returned when a trigger could not be activated,
	// for example because the element was detached.
	ErrActivation = errors.New("trigger activation failed")

	// ErrNavigation is returned when returning to the previous document
	// failed.
	ErrNavigation = errors.New("navigation failed")

	// ErrNoHistory is returned by GoBack when there is no previous document.
	// It wraps ErrNavigation.
	ErrNoHistory = fmt.Errorf("%w: no previous document", ErrNavigation)
)

// Renderer creates Sessions.
type Renderer interface {
	// Open starts a new session. Failing here is fatal to a crawl.
	Open(ctx context.Context) (Session, error)

	// Close releases everything the renderer holds.
	Close() error
}

// Session is one navigable page context with back history.
type Session interface {
	// Load navigates to url and returns the resulting document. It starts
	// a new history: GoBack cannot return past a loaded document.
	// Errors wrap ErrFetch.
	Load(ctx context.Context, url string) (Document, error)

	// Activate triggers t on the current document and returns the document
	// the session ends up on, whose location may be anywhere.
	// Errors wrap ErrActivation.
	Activate(ctx context.Context, t Trigger) (Document, error)

	// GoBack returns the session to the previous document.
	// Errors wrap ErrNavigation.
	GoBack(ctx context.Context) error

	// Release tells the session that no further work will reference doc's
	// triggers.
	Release(doc Document)

	// Close ends the session.
	Close() error
}

// Document is a loaded page.
type Document interface {
	// Location is the URL the session ended up on.
	Location() string

	// Texts returns the text and comment node contents.
	Texts() []string

	// Anchors returns the raw href values of <a> elements.
	Anchors() []string

	// LinkElements returns the raw href values of <link> elements.
	LinkElements() []string

	// Triggers returns the client-side navigation triggers, in document
	// order.
	Triggers() []Trigger
}

// Trigger is an opaque handle on an element whose activation navigates
// client-side.
type Trigger interface {
	String() string
}

// Destined is implemented by triggers whose target URL is known without
// activating them. Destination returns "" when it is not.
type Destined interface {
	Trigger
	Destination() string
}
