package crawler

import "sync"

// item is one URL waiting to be crawled.
type item struct {
	url   string
	depth int
}

// frontier is the shared work list. Items come out in LIFO order.
//
// pop blocks while the list is empty and some worker is still busy, since
// that worker may push more work. When the list is empty and nobody is
// busy, or after close, pop reports that the crawl is over.
type frontier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []item
	busy   int
	closed bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push adds items. The last one is popped first.
func (f *frontier) push(items ...item) {
	if len(items) == 0 {
		return
	}
	f.mu.Lock()
	f.items = append(f.items, items...)
	f.mu.Unlock()
	f.cond.Broadcast()
}

// pop takes the most recently pushed item and marks the caller busy.
// The caller must call done when it has pushed everything it found.
func (f *frontier) pop() (item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.items) == 0 && f.busy > 0 && !f.closed {
		f.cond.Wait()
	}
	if f.closed || len(f.items) == 0 {
		f.closed = true
		f.cond.Broadcast()
		return item{}, false
	}

	last := len(f.items) - 1
	it := f.items[last]
	f.items = f.items[:last]
	f.busy++
	return it, true
}

// done marks the caller idle.
func (f *frontier) done() {
	f.mu.Lock()
	f.busy--
	idle := f.busy == 0 && len(f.items) == 0
	f.mu.Unlock()
	if idle {
		f.cond.Broadcast()
	}
}

// close wakes every waiting worker and makes pop fail from now on.
func (f *frontier) close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cond.Broadcast()
}

// pending returns how many items are waiting.
func (f *frontier) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
