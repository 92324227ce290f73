// Package memsite is an in-memory render.Renderer. Tests describe a site
// as a map of pages and inspect how the crawler moved through it.
package memsite

import (
	"context"
	"fmt"
	"sync"

	"github.com/nao1215/mailcrawl/internal/render"
	"github.com/nao1215/mailcrawl/internal/site"
)

// Page is one page of an in-memory site.
type Page struct {
	// Texts are the page's text and comment blobs.
	Texts []string
	// Anchors and Links are raw href values.
	Anchors []string
	Links   []string
	// Triggers are the URLs each trigger navigates to. An empty string is
	// a trigger whose activation fails.
	Triggers []string
}

// Site is an in-memory Renderer. It is safe for concurrent use; each
// session it opens is not.
type Site struct {
	mu sync.Mutex

	pages   map[string]Page
	failing map[string]bool
	openErr error
	backErr error

	destinations bool

	loads       map[string]int
	order       []string
	activations int
	goBacks     int
	released    int
	sessions    int
}

// New creates an empty Site.
func New() *Site {
	return &Site{
		pages:   make(map[string]Page),
		failing: make(map[string]bool),
		loads:   make(map[string]int),
	}
}

// ExposeDestinations makes triggers report their target URL without being
// activated, as render.Destined. It returns s for chaining.
func (s *Site) ExposeDestinations() *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destinations = true
	return s
}

// Add registers a page under url and returns s for chaining.
func (s *Site) Add(url string, p Page) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[site.Key(url)] = p
	return s
}

// Fail makes every load of url fail.
func (s *Site) Fail(url string) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[site.Key(url)] = true
	return s
}

// FailOpen makes Open return err.
func (s *Site) FailOpen(err error) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
	return s
}

// FailGoBack makes every GoBack return err (wrapped in ErrNavigation).
func (s *Site) FailGoBack(err error) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backErr = err
	return s
}

// Loads returns how many times url was loaded, including failed attempts.
// Activations that land on url are not counted.
func (s *Site) Loads(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads[site.Key(url)]
}

// LoadOrder returns every loaded URL in load order.
func (s *Site) LoadOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Activations returns how many triggers were activated successfully.
func (s *Site) Activations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activations
}

// GoBacks returns how many times any session went back.
func (s *Site) GoBacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goBacks
}

// Released returns how many documents were released.
func (s *Site) Released() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Sessions returns how many sessions were opened.
func (s *Site) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions
}

// Open implements render.Renderer.
func (s *Site) Open(_ context.Context) (render.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.sessions++
	return &session{site: s}, nil
}

// Close implements render.Renderer.
func (s *Site) Close() error { return nil }

// snapshot builds the document for url. ok is false if no page exists.
func (s *Site) snapshot(url string) (*render.Snapshot, bool) {
	p, ok := s.pages[site.Key(url)]
	if !ok {
		return &render.Snapshot{URL: url}, false
	}
	snap := &render.Snapshot{
		URL:       url,
		TextNodes: p.Texts,
		AnchorRef: p.Anchors,
		LinkRef:   p.Links,
	}
	for i, target := range p.Triggers {
		t := &trigger{index: i, target: target, owner: snap}
		if s.destinations {
			snap.Handles = append(snap.Handles, &destinedTrigger{t})
			continue
		}
		snap.Handles = append(snap.Handles, t)
	}
	return snap, true
}

type trigger struct {
	index  int
	target string
	owner  *render.Snapshot
}

func (t *trigger) String() string {
	return fmt.Sprintf("trigger #%d on %s", t.index, t.owner.URL)
}

type destinedTrigger struct {
	*trigger
}

func (t *destinedTrigger) Destination() string {
	return t.target
}

type session struct {
	site    *Site
	history render.History[*render.Snapshot]
}

func (ss *session) Load(ctx context.Context, url string) (render.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrFetch, url, err)
	}

	s := ss.site
	s.mu.Lock()
	s.loads[site.Key(url)]++
	s.order = append(s.order, url)
	failing := s.failing[site.Key(url)]
	snap, ok := s.snapshot(url)
	s.mu.Unlock()

	if failing || !ok {
		return nil, fmt.Errorf("%w: %s: not found", render.ErrFetch, url)
	}
	ss.history.Start(snap)
	return snap, nil
}

func (ss *session) Activate(_ context.Context, t render.Trigger) (render.Document, error) {
	if dt, ok := t.(*destinedTrigger); ok {
		t = dt.trigger
	}
	tr, ok := t.(*trigger)
	if !ok {
		return nil, fmt.Errorf("%w: foreign trigger %s", render.ErrActivation, t)
	}
	cur, loaded := ss.history.Current()
	if !loaded || tr.owner != cur {
		return nil, fmt.Errorf("%w: %s is detached", render.ErrActivation, tr)
	}
	if tr.target == "" {
		return nil, fmt.Errorf("%w: %s does nothing", render.ErrActivation, tr)
	}

	s := ss.site
	s.mu.Lock()
	s.activations++
	// Unknown targets still navigate; the document is just empty.
	snap, _ := s.snapshot(tr.target)
	s.mu.Unlock()

	ss.history.Push(snap)
	return snap, nil
}

func (ss *session) GoBack(_ context.Context) error {
	s := ss.site
	s.mu.Lock()
	s.goBacks++
	backErr := s.backErr
	s.mu.Unlock()

	if backErr != nil {
		return fmt.Errorf("%w: %w", render.ErrNavigation, backErr)
	}
	_, err := ss.history.Back()
	return err
}

func (ss *session) Release(render.Document) {
	ss.site.mu.Lock()
	ss.site.released++
	ss.site.mu.Unlock()
}

func (ss *session) Close() error {
	ss.history.Reset()
	return nil
}
