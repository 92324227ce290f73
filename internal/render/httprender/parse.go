package httprender

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/mailcrawl/internal/render"
)

// Trigger is a route trigger found on one snapshot.
type Trigger struct {
	index int
	expr  string
	route string
	owner *render.Snapshot
}

// String implements render.Trigger.
func (t *Trigger) String() string {
	return fmt.Sprintf("trigger #%d (%s)", t.index, t.expr)
}

// Route returns the route the trigger navigates to, or "" if none could be
// extracted.
func (t *Trigger) Route() string {
	return t.route
}

// Destination implements render.Destined: the route resolved against the
// page the trigger was found on.
func (t *Trigger) Destination() string {
	if t.route == "" || t.owner == nil {
		return ""
	}
	target, err := resolve(t.owner.URL, t.route)
	if err != nil {
		return ""
	}
	return target
}

// parse decodes and parses an HTML body into a snapshot located at
// location.
func parse(body io.Reader, contentType, location string, triggers cascadia.Selector) (*render.Snapshot, error) {
	decoded, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	snap := &render.Snapshot{URL: location}
	for _, n := range doc.Nodes {
		snap.TextNodes = appendTexts(snap.TextNodes, n)
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		snap.AnchorRef = append(snap.AnchorRef, href)
	})
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		snap.LinkRef = append(snap.LinkRef, href)
	})

	doc.FindMatcher(triggers).Each(func(i int, s *goquery.Selection) {
		expr, route := triggerRoute(s)
		snap.Handles = append(snap.Handles, &Trigger{
			index: i,
			expr:  expr,
			route: route,
			owner: snap,
		})
	})

	return snap, nil
}

// triggerRoute reads the handler expression of a trigger element and the
// route it navigates to. ng-click="changeRoute('/x')" is preferred; a
// data-route attribute is used otherwise.
func triggerRoute(s *goquery.Selection) (expr, route string) {
	if click, ok := s.Attr("ng-click"); ok {
		expr = click
		if m := routeCall.FindStringSubmatch(click); m != nil {
			return expr, m[1]
		}
	}
	if r, ok := s.Attr("data-route"); ok {
		if expr == "" {
			expr = "data-route=" + r
		}
		return expr, strings.TrimSpace(r)
	}
	if expr == "" {
		expr = goquery.NodeName(s)
	}
	return expr, ""
}

// appendTexts collects non-blank text nodes and all comments under n,
// skipping elements whose content is not displayed text.
func appendTexts(out []string, n *html.Node) []string {
	switch n.Type {
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return out
		}
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			out = append(out, t)
		}
	case html.CommentNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			out = append(out, t)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = appendTexts(out, c)
	}
	return out
}
