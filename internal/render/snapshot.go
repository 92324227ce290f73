package render

// Snapshot is a Document captured at one point in time. Renderers fill it
// in once per load or activation; it does not change afterwards.
type Snapshot struct {
	URL       string
	TextNodes []string
	AnchorRef []string
	LinkRef   []string
	Handles   []Trigger
}

// Location implements Document.
func (s *Snapshot) Location() string { return s.URL }

// Texts implements Document.
func (s *Snapshot) Texts() []string { return s.TextNodes }

// Anchors implements Document.
func (s *Snapshot) Anchors() []string { return s.AnchorRef }

// LinkElements implements Document.
func (s *Snapshot) LinkElements() []string { return s.LinkRef }

// Triggers implements Document.
func (s *Snapshot) Triggers() []Trigger { return s.Handles }

// History is the back stack of a session. Load starts over with Start,
// Activate pushes with Push and GoBack pops with Back.
// It is not safe for concurrent use; it belongs to one session.
type History[T any] struct {
	current T
	loaded  bool
	back    []T
}

// Push makes entry the current entry. The previous current entry, if any,
// becomes reachable with Back.
func (h *History[T]) Push(entry T) {
	if h.loaded {
		h.back = append(h.back, h.current)
	}
	h.current = entry
	h.loaded = true
}

// Start makes entry the only entry, dropping everything before it.
func (h *History[T]) Start(entry T) {
	h.Reset()
	h.current = entry
	h.loaded = true
}

// Back discards the current entry and returns the previous one, which
// becomes current. It returns ErrNoHistory when there is nothing to go
// back to; the current entry is kept in that case.
func (h *History[T]) Back() (T, error) {
	if len(h.back) == 0 {
		var zero T
		return zero, ErrNoHistory
	}
	last := len(h.back) - 1
	h.current = h.back[last]
	h.back = h.back[:last]
	return h.current, nil
}

// Current returns the current entry and whether there is one.
func (h *History[T]) Current() (T, bool) {
	return h.current, h.loaded
}

// Depth returns how many entries Back can return to.
func (h *History[T]) Depth() int {
	return len(h.back)
}

// Reset empties the history.
func (h *History[T]) Reset() {
	var zero T
	h.current = zero
	h.loaded = false
	h.back = nil
}
