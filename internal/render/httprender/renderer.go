// Package httprender is a Renderer that fetches pages over plain HTTP and
// parses them in-process. It does not run JavaScript.
//
// Client-side route triggers are still followed: elements matched by the
// trigger selector (by default anything whose ng-click calls changeRoute)
// are activated by extracting the route from the handler expression and
// fetching it. Going back restores the previous snapshot without a
// network round trip.
package httprender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"

	"github.com/nao1215/mailcrawl/internal/render"
	"github.com/nao1215/mailcrawl/internal/site"
)

// ErrInvalidSelector is returned by New for a trigger selector that is not
// valid CSS.
var ErrInvalidSelector = errors.New("invalid trigger selector")

const (
	// DefaultTriggerSelector matches AngularJS-style route links.
	DefaultTriggerSelector = `[ng-click*="changeRoute"]`

	// DefaultUserAgent is sent when no other User-Agent is configured.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

	// DefaultMaxBodySize is the largest body read from one response.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024
)

// routeCall extracts the argument of changeRoute('...') from a handler.
var routeCall = regexp.MustCompile(`changeRoute\(\s*['"]([^'"]*)['"]`)

// Renderer fetches pages with an http.Client.
type Renderer struct {
	client      *http.Client
	origin      site.Origin
	userAgent   string
	headers     map[string]string
	maxBodySize int64
	selector    cascadia.Selector

	// deadRoutes maps route targets that failed to load to their error.
	// Shared by all sessions; a broken route is fetched once per renderer.
	deadRoutes sync.Map
}

// Option configures a Renderer.
type Option func(*Renderer) error

// WithClient sets the HTTP client. See NewClient.
func WithClient(c *http.Client) Option {
	return func(r *Renderer) error {
		r.client = c
		return nil
	}
}

// WithOrigin makes fetches whose redirect chain ends outside origin fail.
func WithOrigin(origin site.Origin) Option {
	return func(r *Renderer) error {
		r.origin = origin
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *Renderer) error {
		if ua != "" {
			r.userAgent = ua
		}
		return nil
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(r *Renderer) error {
		for k, v := range headers {
			r.headers[k] = v
		}
		return nil
	}
}

// WithMaxBodySize limits how much of each response body is read.
func WithMaxBodySize(n int64) Option {
	return func(r *Renderer) error {
		if n > 0 {
			r.maxBodySize = n
		}
		return nil
	}
}

// WithTriggerSelector sets the CSS selector that identifies route triggers.
func WithTriggerSelector(selector string) Option {
	return func(r *Renderer) error {
		if selector == "" {
			return nil
		}
		sel, err := cascadia.Compile(selector)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidSelector, selector, err)
		}
		r.selector = sel
		return nil
	}
}

// New creates a Renderer.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		client:      http.DefaultClient,
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		maxBodySize: DefaultMaxBodySize,
		selector:    cascadia.MustCompile(DefaultTriggerSelector),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Open implements render.Renderer.
func (r *Renderer) Open(_ context.Context) (render.Session, error) {
	return &session{r: r}, nil
}

// Close implements render.Renderer.
func (r *Renderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// session is one history stack of snapshots.
type session struct {
	r       *Renderer
	history render.History[*render.Snapshot]
}

func (s *session) Load(ctx context.Context, pageURL string) (render.Document, error) {
	snap, err := s.r.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	s.history.Start(snap)
	return snap, nil
}

func (s *session) Activate(ctx context.Context, t render.Trigger) (render.Document, error) {
	rt, ok := t.(*Trigger)
	if !ok {
		return nil, fmt.Errorf("%w: foreign trigger %s", render.ErrActivation, t)
	}
	cur, loaded := s.history.Current()
	if !loaded || rt.owner != cur {
		return nil, fmt.Errorf("%w: %s is not on the current document", render.ErrActivation, rt)
	}
	if rt.route == "" {
		return nil, fmt.Errorf("%w: %s has no route", render.ErrActivation, rt)
	}

	target, err := resolve(cur.URL, rt.route)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrActivation, rt, err)
	}

	// A route leaving the site is recorded but never fetched. The caller
	// sees the foreign location and goes back.
	if !s.r.origin.IsZero() && !s.r.origin.Contains(target) {
		snap := &render.Snapshot{URL: target}
		s.history.Push(snap)
		return snap, nil
	}

	if prev, dead := s.r.deadRoutes.Load(site.Key(target)); dead {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrActivation, rt, prev.(error))
	}
	snap, err := s.r.fetch(ctx, target)
	if err != nil {
		if ctx.Err() == nil {
			s.r.deadRoutes.Store(site.Key(target), err)
		}
		return nil, fmt.Errorf("%w: %s: %w", render.ErrActivation, rt, err)
	}
	s.history.Push(snap)
	return snap, nil
}

func (s *session) GoBack(_ context.Context) error {
	_, err := s.history.Back()
	return err
}

// Release is a no-op: snapshots hold no live resources.
func (s *session) Release(render.Document) {}

func (s *session) Close() error {
	s.history.Reset()
	return nil
}

// resolve resolves a route against the location of the page it came from.
func resolve(base, route string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(route)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}

// fetch loads one URL and parses it into a snapshot.
func (r *Renderer) fetch(ctx context.Context, pageURL string) (*render.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrFetch, pageURL, err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrFetch, pageURL, err)
	}
	defer resp.Body.Close()

	// A 3xx here means the redirect limit was hit.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s: status %d", render.ErrFetch, pageURL, resp.StatusCode)
	}

	location := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		location = resp.Request.URL.String()
	}
	if !r.origin.IsZero() && !r.origin.Contains(location) {
		return nil, fmt.Errorf("%w: %s: redirected outside the site to %s", render.ErrFetch, pageURL, location)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, fmt.Errorf("%w: %s: not an HTML page (%s)", render.ErrFetch, pageURL, contentType)
	}

	body := io.LimitReader(resp.Body, r.maxBodySize)
	snap, err := parse(body, contentType, location, r.selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrFetch, pageURL, err)
	}
	return snap, nil
}

// isHTML reports whether a Content-Type header denotes an HTML document.
// A missing header is accepted.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
