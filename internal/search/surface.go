package search

import "sync"

// KeyEscape closes the search surface.
const KeyEscape = "Escape"

// Surface is the state of the search overlay. Opening or closing it discards the typed term
// and any results. The overlay endpoint renders from a Surface, and the page script keeps the
// same rules on the client: Escape and clicks on the backdrop close, and every keystroke runs a
// fresh query.
type Surface struct {
	mu     sync.Mutex
	index  *Index
	open   bool
	result Result
}

// NewSurface returns a closed surface backed by index.
func NewSurface(index *Index) *Surface {
	return &Surface{index: index, result: Result{State: StateNotSearched}}
}

// Open shows the overlay with an empty input.
func (s *Surface) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.result = Result{State: StateNotSearched}
}

// Close hides the overlay and resets it.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.result = Result{State: StateNotSearched}
}

// Input runs a fresh query for the current text. Each call replaces the previous result.
func (s *Surface) Input(term string) Result {
	res := s.index.Query(term)
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
	return res
}

// Key handles a key press and reports whether it closed the overlay.
func (s *Surface) Key(key string) bool {
	if key != KeyEscape {
		return false
	}
	s.Close()
	return true
}

// ClickOutside closes the overlay.
func (s *Surface) ClickOutside() {
	s.Close()
}

// IsOpen reports whether the overlay is showing.
func (s *Surface) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Result returns the latest result.
func (s *Surface) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}
