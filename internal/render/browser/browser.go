// Package browser is a Renderer backed by a headless Chrome driven through
// go-rod. Pages run their JavaScript, so client-side routers work the way
// they do for a visitor.
//
// Each session is one Chrome tab. Trigger handles are resolved again by
// selector and position when activated, because clicking one trigger may
// rebuild the DOM and invalidate element references.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/nao1215/mailcrawl/internal/render"
)

// ErrLaunch is returned by New when Chrome cannot be started or reached.
var ErrLaunch = errors.New("browser launch failed")

// Config configures the browser renderer.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string

	// Stealth hides common automation fingerprints.
	Stealth bool

	// Proxy is passed to a locally launched Chrome ("host:port" or
	// "socks5://host:port").
	Proxy string

	// TriggerSelector identifies client-side navigation triggers.
	TriggerSelector string

	// Timeout bounds each load, activation and back navigation.
	Timeout time.Duration

	// Settle is how long to wait for the page to go idle after it loads.
	Settle time.Duration

	UserAgent string
	Headers   map[string]string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.TriggerSelector == "" {
		c.TriggerSelector = `[ng-click*="changeRoute"]`
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Settle <= 0 {
		c.Settle = 500 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Renderer owns one Chrome process (or connection).
type Renderer struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New launches Chrome, or connects to cfg.RemoteURL.
func New(ctx context.Context, cfg Config) (*Renderer, error) {
	cfg.defaults()
	log := cfg.Logger

	var wsURL string
	r := &Renderer{cfg: cfg}

	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Context(ctx).Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		if cfg.Proxy != "" {
			l = l.Proxy(cfg.Proxy)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLaunch, err)
		}
		wsURL = u
		r.lnch = l
		log.Debug("browser: launched local chrome", "url", wsURL)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if r.lnch != nil {
			r.lnch.Cleanup()
		}
		return nil, fmt.Errorf("%w: connect: %w", ErrLaunch, err)
	}
	r.browser = b
	return r, nil
}

// Open implements render.Renderer. It opens a new tab.
func (r *Renderer) Open(_ context.Context) (render.Session, error) {
	var (
		page *rod.Page
		err  error
	)
	if r.cfg.Stealth {
		page, err = stealth.Page(r.browser)
	} else {
		page, err = r.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if r.cfg.UserAgent != "" {
		if err := (proto.NetworkSetUserAgentOverride{UserAgent: r.cfg.UserAgent}).Call(page); err != nil {
			r.cfg.Logger.Warn("browser: set user agent failed", "error", err)
		}
	}
	if len(r.cfg.Headers) > 0 {
		headers := make(proto.NetworkHeaders, len(r.cfg.Headers))
		for k, v := range r.cfg.Headers {
			headers[k] = gson.New(v)
		}
		if err := (proto.NetworkSetExtraHTTPHeaders{Headers: headers}).Call(page); err != nil {
			r.cfg.Logger.Warn("browser: set extra headers failed", "error", err)
		}
	}

	return &session{r: r, page: page}, nil
}

// Close implements render.Renderer. It shuts Chrome down.
func (r *Renderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
		r.lnch = nil
	}
	return err
}

// Trigger identifies the index-th element matching the trigger selector on
// one snapshot.
type Trigger struct {
	index int
	label string
	owner *render.Snapshot
}

// String implements render.Trigger.
func (t *Trigger) String() string {
	return fmt.Sprintf("trigger #%d (%s)", t.index, t.label)
}

type session struct {
	r       *Renderer
	page    *rod.Page
	history render.History[entry]
}

// entry is one step of a session's history. moved records whether the
// step created a browser history entry; a click that changed nothing
// must not be undone with a real back navigation.
type entry struct {
	snap       *render.Snapshot
	historyLen int
	moved      bool
}

func (s *session) Load(ctx context.Context, url string) (render.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.r.cfg.Timeout)
	defer cancel()

	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrFetch, url, err)
	}
	s.settle(p, url)

	snap, n, err := s.snapshot(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrFetch, url, err)
	}
	s.history.Start(entry{snap: snap, historyLen: n, moved: true})
	return snap, nil
}

func (s *session) Activate(ctx context.Context, t render.Trigger) (render.Document, error) {
	bt, ok := t.(*Trigger)
	if !ok {
		return nil, fmt.Errorf("%w: foreign trigger %s", render.ErrActivation, t)
	}
	cur, loaded := s.history.Current()
	if !loaded || bt.owner != cur.snap {
		return nil, fmt.Errorf("%w: %s is not on the current document", render.ErrActivation, bt)
	}

	ctx, cancel := context.WithTimeout(ctx, s.r.cfg.Timeout)
	defer cancel()
	p := s.page.Context(ctx)

	els, err := p.Elements(s.r.cfg.TriggerSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrActivation, bt, err)
	}
	if bt.index >= len(els) {
		return nil, fmt.Errorf("%w: %s is detached", render.ErrActivation, bt)
	}
	if err := els[bt.index].Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrActivation, bt, err)
	}
	s.settle(p, bt.String())

	snap, n, err := s.snapshot(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", render.ErrActivation, bt, err)
	}
	moved := n != cur.historyLen || snap.URL != cur.snap.URL
	s.history.Push(entry{snap: snap, historyLen: n, moved: moved})
	return snap, nil
}

func (s *session) GoBack(ctx context.Context) error {
	if s.history.Depth() == 0 {
		return render.ErrNoHistory
	}
	cur, _ := s.history.Current()
	if !cur.moved {
		_, err := s.history.Back()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.r.cfg.Timeout)
	defer cancel()
	p := s.page.Context(ctx)

	if err := p.NavigateBack(); err != nil {
		return fmt.Errorf("%w: %w", render.ErrNavigation, err)
	}
	s.settle(p, "back")
	_, err := s.history.Back()
	return err
}

// Release drops nothing: triggers are looked up again on activation.
func (s *session) Release(render.Document) {}

func (s *session) Close() error {
	s.history.Reset()
	return s.page.Close()
}

// settle waits for the load event and a short idle period. Timeouts only
// make the snapshot less complete, so they are logged and ignored.
func (s *session) settle(p *rod.Page, what string) {
	if err := p.WaitLoad(); err != nil {
		s.r.cfg.Logger.Debug("browser: wait load", "target", what, "error", err)
	}
	if err := p.WaitIdle(s.r.cfg.Settle); err != nil {
		s.r.cfg.Logger.Debug("browser: wait idle", "target", what, "error", err)
	}
}

// snapshotJS collects everything a Document exposes in one round trip.
const snapshotJS = `(selector) => {
	const skip = new Set(["SCRIPT", "STYLE", "NOSCRIPT", "TEMPLATE"]);
	const texts = [];
	const walker = document.createTreeWalker(document, NodeFilter.SHOW_TEXT | NodeFilter.SHOW_COMMENT);
	for (let n = walker.nextNode(); n; n = walker.nextNode()) {
		if (n.nodeType === Node.TEXT_NODE && n.parentElement && skip.has(n.parentElement.tagName)) {
			continue;
		}
		const t = (n.nodeValue || "").trim();
		if (t) texts.push(t);
	}
	const hrefs = (q) => Array.from(document.querySelectorAll(q), (e) => e.getAttribute("href") || "");
	const triggers = Array.from(document.querySelectorAll(selector),
		(e) => e.getAttribute("ng-click") || e.tagName.toLowerCase());
	return {location: location.href, historyLength: history.length, texts, anchors: hrefs("a[href]"), links: hrefs("link[href]"), triggers};
}`

type pageState struct {
	Location      string   `json:"location"`
	HistoryLength int      `json:"historyLength"`
	Texts         []string `json:"texts"`
	Anchors       []string `json:"anchors"`
	Links         []string `json:"links"`
	Triggers      []string `json:"triggers"`
}

// snapshot captures the current page and the browser history length.
func (s *session) snapshot(p *rod.Page) (*render.Snapshot, int, error) {
	res, err := p.Eval(snapshotJS, s.r.cfg.TriggerSelector)
	if err != nil {
		return nil, 0, fmt.Errorf("snapshot: %w", err)
	}

	var st pageState
	if err := res.Value.Unmarshal(&st); err != nil {
		return nil, 0, fmt.Errorf("snapshot: %w", err)
	}

	snap := &render.Snapshot{
		URL:       st.Location,
		TextNodes: st.Texts,
		AnchorRef: st.Anchors,
		LinkRef:   st.Links,
	}
	for i, label := range st.Triggers {
		snap.Handles = append(snap.Handles, &Trigger{index: i, label: label, owner: snap})
	}
	return snap, st.HistoryLength, nil
}
