package memsite

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/mailcrawl/internal/render"
)

func TestSite(t *testing.T) {
	t.Parallel()

	newSite := func() *Site {
		return New().
			Add("http://example.com/", Page{
				Texts:    []string{"home"},
				Anchors:  []string{"/a"},
				Triggers: []string{"http://example.com/dyn", ""},
			}).
			Add("http://example.com/dyn", Page{Texts: []string{"dynamic"}}).
			Fail("http://example.com/broken")
	}

	t.Run("load counts attempts", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		sess, err := s.Open(context.Background())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}

		doc, err := sess.Load(context.Background(), "http://example.com/")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if doc.Texts()[0] != "home" {
			t.Errorf("unexpected texts %v", doc.Texts())
		}

		if _, err := sess.Load(context.Background(), "http://example.com/broken"); !errors.Is(err, render.ErrFetch) {
			t.Errorf("expected ErrFetch, got %v", err)
		}
		if _, err := sess.Load(context.Background(), "http://example.com/unknown"); !errors.Is(err, render.ErrFetch) {
			t.Errorf("expected ErrFetch for unknown page, got %v", err)
		}

		if s.Loads("HTTP://EXAMPLE.COM/") != 1 || s.Loads("http://example.com/broken") != 1 {
			t.Error("unexpected load counts")
		}
		if len(s.LoadOrder()) != 3 {
			t.Errorf("unexpected load order %v", s.LoadOrder())
		}
	})

	t.Run("triggers navigate and fail", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		sess, _ := s.Open(context.Background())
		ctx := context.Background()

		home, err := sess.Load(ctx, "http://example.com/")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}

		if _, err := sess.Activate(ctx, home.Triggers()[1]); !errors.Is(err, render.ErrActivation) {
			t.Errorf("expected ErrActivation, got %v", err)
		}

		dyn, err := sess.Activate(ctx, home.Triggers()[0])
		if err != nil {
			t.Fatalf("Activate: %v", err)
		}
		if dyn.Location() != "http://example.com/dyn" {
			t.Errorf("unexpected location %q", dyn.Location())
		}
		if err := sess.GoBack(ctx); err != nil {
			t.Fatalf("GoBack: %v", err)
		}
		if s.Activations() != 1 || s.GoBacks() != 1 {
			t.Errorf("unexpected counters %d/%d", s.Activations(), s.GoBacks())
		}
		if s.Loads("http://example.com/dyn") != 0 {
			t.Error("expected activation not to count as a load")
		}
	})

	t.Run("load starts a new history", func(t *testing.T) {
		t.Parallel()

		s := newSite()
		sess, _ := s.Open(context.Background())
		ctx := context.Background()

		for _, u := range []string{"http://example.com/", "http://example.com/dyn", "http://example.com/"} {
			if _, err := sess.Load(ctx, u); err != nil {
				t.Fatalf("Load %s: %v", u, err)
			}
		}
		if depth := sess.(*session).history.Depth(); depth != 0 {
			t.Errorf("expected history depth 0, got %d", depth)
		}
		if err := sess.GoBack(ctx); !errors.Is(err, render.ErrNoHistory) {
			t.Errorf("expected ErrNoHistory after loads, got %v", err)
		}
	})

	t.Run("failures can be injected", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		if _, err := New().FailOpen(boom).Open(context.Background()); !errors.Is(err, boom) {
			t.Errorf("expected open failure, got %v", err)
		}

		s := newSite().FailGoBack(boom)
		sess, _ := s.Open(context.Background())
		if err := sess.GoBack(context.Background()); !errors.Is(err, render.ErrNavigation) {
			t.Errorf("expected ErrNavigation, got %v", err)
		}
	})
}
