// Package reveal tracks which page elements have scrolled into view and animates them in once.
//
// Pages arm an Observer while rendering and publish its Threshold and Pending ids on the body
// element; the page script feeds IntersectionObserver entries through the same rules Handle
// applies. Handle is the reference for that behaviour: an element is revealed the first time it
// intersects at or past the threshold and is never observed again.
package reveal

import (
	"sort"
	"sync"
	"time"
)

const (
	// DefaultThreshold is the visible fraction at which an element is revealed.
	DefaultThreshold = 0.15
	// DefaultDelayBase is the per-position stagger between cards of one grid.
	DefaultDelayBase = 150 * time.Millisecond
)

// Delay returns the stagger delay for the card at index.
func Delay(index int, base time.Duration) time.Duration {
	if index <= 0 || base <= 0 {
		return 0
	}
	return time.Duration(index) * base
}

// Entry is one intersection observation for an element.
type Entry struct {
	ID           string
	Ratio        float64
	Intersecting bool
}

// Option configures an Observer.
type Option func(*Observer)

// WithOnReveal registers a callback invoked once per revealed element.
func WithOnReveal(fn func(id string)) Option {
	return func(o *Observer) {
		o.onReveal = fn
	}
}

// Observer reveals elements the first time they intersect the viewport past the threshold.
// Revealed elements are never observed again.
type Observer struct {
	mu        sync.Mutex
	threshold float64
	observing map[string]struct{}
	visible   map[string]struct{}
	onReveal  func(id string)
}

// NewObserver constructs an observer. Thresholds outside (0, 1] fall back to DefaultThreshold.
func NewObserver(threshold float64, opts ...Option) *Observer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	o := &Observer{
		threshold: threshold,
		observing: make(map[string]struct{}),
		visible:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Threshold returns the configured reveal threshold.
func (o *Observer) Threshold() float64 {
	return o.threshold
}

// Observe starts watching ids. Already visible or already observed ids are ignored, so calling
// it again after a grid re-render is safe.
func (o *Observer) Observe(ids ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, done := o.visible[id]; done {
			continue
		}
		o.observing[id] = struct{}{}
	}
}

// Handle applies a batch of observations and returns the ids revealed by it.
func (o *Observer) Handle(entries []Entry) []string {
	o.mu.Lock()
	var revealed []string
	for _, e := range entries {
		if _, watched := o.observing[e.ID]; !watched {
			continue
		}
		if !e.Intersecting || e.Ratio < o.threshold {
			continue
		}
		delete(o.observing, e.ID)
		o.visible[e.ID] = struct{}{}
		revealed = append(revealed, e.ID)
	}
	fn := o.onReveal
	o.mu.Unlock()

	if fn != nil {
		for _, id := range revealed {
			fn(id)
		}
	}
	return revealed
}

// Visible reports whether id has been revealed.
func (o *Observer) Visible(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.visible[id]
	return ok
}

// Observing reports whether id is still being watched.
func (o *Observer) Observing(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.observing[id]
	return ok
}

// Pending returns the ids still waiting to be revealed, sorted.
func (o *Observer) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.observing))
	for id := range o.observing {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
