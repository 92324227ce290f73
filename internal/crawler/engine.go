package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	mlog "github.com/nao1215/mailcrawl/internal/log"
	"github.com/nao1215/mailcrawl/internal/link"
	"github.com/nao1215/mailcrawl/internal/model"
	"github.com/nao1215/mailcrawl/internal/registry"
	"github.com/nao1215/mailcrawl/internal/render"
	"github.com/nao1215/mailcrawl/internal/scanner"
	"github.com/nao1215/mailcrawl/internal/site"
)

// ErrRecursionLimit is recorded for a URL reached deeper than the depth
// limit. The URL is marked errored and its branch is abandoned.
var ErrRecursionLimit = errors.New("recursion limit exceeded")

// DefaultMaxDepth is the depth limit used when none is configured.
const DefaultMaxDepth = 100

// FindingHandler receives each finding as soon as it is made. Calls are
// serialized.
type FindingHandler func(model.Finding)

// Engine crawls one site through a render.Renderer.
type Engine struct {
	renderer    render.Renderer
	origin      site.Origin
	classifier  *link.Classifier
	scanner     *scanner.Scanner
	registry    *registry.Registry
	maxDepth    int
	concurrency int
	logger      *slog.Logger
	onFinding   FindingHandler
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets how many hops (static or dynamic) from the start URL
// the crawl may go. Negative values are ignored.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth >= 0 {
			e.maxDepth = depth
		}
	}
}

// WithConcurrency sets the number of workers, each with its own session.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClassifier replaces the default link classifier, e.g. to add
// ignore patterns.
func WithClassifier(c *link.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithScanner replaces the default (loose) scanner.
func WithScanner(s *scanner.Scanner) Option {
	return func(e *Engine) {
		if s != nil {
			e.scanner = s
		}
	}
}

// WithFindingHandler streams findings to h while the crawl runs.
func WithFindingHandler(h FindingHandler) Option {
	return func(e *Engine) {
		e.onFinding = h
	}
}

// WithRegistry makes the crawl use r instead of a fresh registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// New creates an Engine that stays within origin.
func New(renderer render.Renderer, origin site.Origin, opts ...Option) *Engine {
	e := &Engine{
		renderer:    renderer,
		origin:      origin,
		maxDepth:    DefaultMaxDepth,
		concurrency: 1,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.classifier == nil {
		e.classifier = link.NewClassifier(origin)
	}
	if e.scanner == nil {
		e.scanner = scanner.New(nil)
	}
	return e
}

// Crawl explores the site from startURL until the frontier is exhausted or
// ctx is done. A cancelled crawl returns the partial report with
// Cancelled set. The only error is failing to open renderer sessions (or a
// start URL outside the origin).
func (e *Engine) Crawl(ctx context.Context, startURL string) (*model.CrawlReport, error) {
	if !e.origin.Contains(startURL) {
		return nil, fmt.Errorf("%w: start URL %s is outside %s", site.ErrInvalidSeed, startURL, e.origin)
	}

	reg := e.registry
	if reg == nil {
		reg = registry.New()
	}
	r := &run{
		Engine:   e,
		registry: reg,
		report:   model.NewCrawlReport(startURL, e.origin.String()),
	}

	sessions := make([]render.Session, 0, e.concurrency)
	defer func() {
		for _, s := range sessions {
			if err := s.Close(); err != nil {
				e.logger.Debug("close session", "error", err)
			}
		}
	}()
	for range e.concurrency {
		s, err := e.renderer.Open(ctx)
		if err != nil {
			return nil, fmt.Errorf("open renderer session: %w", err)
		}
		sessions = append(sessions, s)
	}

	f := newFrontier()
	f.push(item{url: startURL, depth: 0})
	stop := context.AfterFunc(ctx, f.close)
	defer stop()

	e.logger.Info("crawl started", "start", startURL, "origin", e.origin.String(),
		"workers", e.concurrency, "max_depth", e.maxDepth)

	var g errgroup.Group
	for _, s := range sessions {
		g.Go(func() error {
			r.work(ctx, f, s)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	visited, errored := reg.Summary()
	r.report.VisitedCount = visited
	r.report.ErroredCount = errored
	r.report.Duration = time.Since(r.report.StartedAt)
	r.report.Cancelled = ctx.Err() != nil || f.pending() > 0

	e.logger.Info("crawl finished", "visited", visited, "errored", errored,
		"findings", len(r.report.Findings), "cancelled", r.report.Cancelled,
		"duration", r.report.Duration)

	return r.report, nil
}

// run is the state of one Crawl call.
type run struct {
	*Engine
	registry *registry.Registry

	mu     sync.Mutex
	report *model.CrawlReport
}

// work is one worker's loop. s is owned by this worker alone.
func (r *run) work(ctx context.Context, f *frontier, s render.Session) {
	for {
		it, ok := f.pop()
		if !ok {
			return
		}
		next := r.visit(ctx, s, it)
		// Reverse so the first link found is the next one popped.
		slices.Reverse(next)
		f.push(next...)
		f.done()
	}
}

// visit crawls one static URL and returns the work it discovered.
func (r *run) visit(ctx context.Context, s render.Session, it item) []item {
	if ctx.Err() != nil {
		return nil
	}
	if !r.registry.Claim(it.url) {
		r.logger.Log(ctx, mlog.LevelTrace, "already known", "url", it.url)
		return nil
	}
	if it.depth > r.maxDepth {
		r.registry.MarkErrored(it.url)
		r.fail(ctx, it.url, model.ErrorKindRecursionLimit, ErrRecursionLimit)
		return nil
	}

	doc, err := s.Load(ctx, it.url)
	if err != nil {
		if ctx.Err() != nil {
			// Interrupted, not broken: leave the URL claimed but uncounted.
			return nil
		}
		r.registry.MarkErrored(it.url)
		r.fail(ctx, it.url, model.ErrorKindFetch, err)
		return nil
	}
	defer s.Release(doc)

	r.registry.MarkVisited(it.url)
	return r.process(ctx, s, doc, it.url, it.depth, false)
}

// process handles a loaded document registered under pageURL: scan it,
// collect its static links, then explore its triggers. The session is on
// doc when process starts and when it returns.
func (r *run) process(ctx context.Context, s render.Session, doc render.Document, pageURL string, depth int, dynamic bool) []item {
	findings := r.scanner.Scan(pageURL, doc.Texts())
	r.recordPage(model.PageRecord{
		URL:         pageURL,
		Depth:       depth,
		Dynamic:     dynamic,
		Fingerprint: model.Fingerprint(doc.Texts()),
		Findings:    len(findings),
	}, findings)
	r.logger.Debug("visited", "url", pageURL, "depth", depth, "dynamic", dynamic, "findings", len(findings))

	// Static links first: activating a trigger can replace the document.
	raws := append(slices.Clone(doc.Anchors()), doc.LinkElements()...)
	static := r.classifier.Collect(raws...)
	if r.logger.Enabled(ctx, mlog.LevelTrace) {
		for _, raw := range raws {
			rec := r.classifier.Classify(raw)
			r.logger.Log(ctx, mlog.LevelTrace, "link", "page", pageURL, "href", raw, "kind", rec.Kind.String())
		}
	}

	var next []item
	for _, t := range doc.Triggers() {
		if ctx.Err() != nil {
			break
		}
		next = append(next, r.follow(ctx, s, t, pageURL, depth)...)
	}

	out := make([]item, 0, len(static)+len(next))
	for _, u := range static {
		if !r.registry.HasBeenVisited(u) {
			out = append(out, item{url: u, depth: depth + 1})
		}
	}
	return append(out, next...)
}

// follow activates one trigger on the document at pageURL and returns the
// static work found behind it. The session is back on pageURL's document
// when follow returns, unless going back failed.
func (r *run) follow(ctx context.Context, s render.Session, t render.Trigger, pageURL string, depth int) []item {
	if d, ok := t.(render.Destined); ok {
		if dest := d.Destination(); dest != "" && r.origin.Contains(dest) && r.registry.HasBeenVisited(dest) {
			r.logger.Log(ctx, mlog.LevelTrace, "trigger leads to a known page", "page", pageURL, "trigger", t.String(), "location", dest)
			return nil
		}
	}

	doc, err := s.Activate(ctx, t)
	if err != nil {
		r.fail(ctx, pageURL, model.ErrorKindActivation, err)
		return nil
	}
	defer s.Release(doc)

	loc := doc.Location()
	switch {
	case !r.origin.Contains(loc):
		r.logger.Log(ctx, mlog.LevelTrace, "trigger left the site", "page", pageURL, "trigger", t.String(), "location", loc)
		r.unwind(ctx, s, pageURL)
		return nil
	case !r.registry.Claim(loc):
		r.logger.Log(ctx, mlog.LevelTrace, "trigger reached a known page", "page", pageURL, "trigger", t.String(), "location", loc)
		r.unwind(ctx, s, pageURL)
		return nil
	case depth+1 > r.maxDepth:
		r.registry.MarkErrored(loc)
		r.fail(ctx, loc, model.ErrorKindRecursionLimit, ErrRecursionLimit)
		r.unwind(ctx, s, pageURL)
		return nil
	}

	r.registry.MarkVisited(loc)
	next := r.process(ctx, s, doc, loc, depth+1, true)
	r.unwind(ctx, s, pageURL)
	return next
}

// unwind returns the session to the document it was on before the last
// activation. Failure is recorded and otherwise ignored.
func (r *run) unwind(ctx context.Context, s render.Session, pageURL string) {
	if err := s.GoBack(ctx); err != nil {
		r.fail(ctx, pageURL, model.ErrorKindNavigation, err)
	}
}

func (r *run) recordPage(page model.PageRecord, findings []model.Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Pages = append(r.report.Pages, page)
	r.report.Findings = append(r.report.Findings, findings...)
	if r.onFinding != nil {
		for _, f := range findings {
			r.onFinding(f)
		}
	}
}

func (r *run) fail(ctx context.Context, url string, kind model.ErrorKind, err error) {
	r.mu.Lock()
	r.report.Errors = append(r.report.Errors, model.PageError{
		URL:     url,
		Kind:    kind,
		Message: err.Error(),
	})
	r.mu.Unlock()

	level := slog.LevelWarn
	if kind == model.ErrorKindActivation {
		level = slog.LevelDebug
	}
	r.logger.Log(ctx, level, "crawl error", "url", url, "kind", string(kind), "error", err)
}
