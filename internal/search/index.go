// Package search implements the site-wide search over loaded content.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
)

// State distinguishes an idle search from an empty one.
type State string

const (
	StateNotSearched State = "not-searched"
	StateNoResults   State = "no-results"
	StateResults     State = "results"
)

const (
	minTermLength = 1
	maxTermLength = 2

	// DefaultMinLength is used when no minimum is configured.
	DefaultMinLength = 2
)

// Source supplies the items to search. *content.Store satisfies it.
type Source interface {
	Items() []content.Item
}

// Result is the outcome of one query.
type Result struct {
	State State
	Term  string
	Items []content.Item
}

// Index answers queries against the current snapshot of a Source.
type Index struct {
	src     Source
	minLen  int
	metrics *observability.Metrics
}

// Option configures an Index.
type Option func(*Index)

// WithMetrics records query outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Index) {
		i.metrics = m
	}
}

// NewIndex builds an index. minLen is clamped to 1..2.
func NewIndex(src Source, minLen int, opts ...Option) *Index {
	if minLen < minTermLength {
		minLen = minTermLength
	}
	if minLen > maxTermLength {
		minLen = maxTermLength
	}
	idx := &Index{src: src, minLen: minLen}
	for _, opt := range opts {
		if opt != nil {
			opt(idx)
		}
	}
	return idx
}

// MinLength returns the shortest term that triggers matching.
func (i *Index) MinLength() int {
	return i.minLen
}

// Query matches term case-insensitively against title, description, category and type.
// Results keep the store's order. Terms shorter than the minimum yield StateNotSearched.
func (i *Index) Query(term string) Result {
	term = strings.TrimSpace(term)
	res := Result{Term: term}
	if utf8.RuneCountInString(term) < i.minLen {
		res.State = StateNotSearched
		i.metrics.SearchQueried(string(res.State))
		return res
	}

	needle := strings.ToLower(term)
	var items []content.Item
	if i.src != nil {
		items = i.src.Items()
	}
	for _, item := range items {
		if matches(item, needle) {
			res.Items = append(res.Items, item)
		}
	}
	if len(res.Items) == 0 {
		res.State = StateNoResults
	} else {
		res.State = StateResults
	}
	i.metrics.SearchQueried(string(res.State))
	return res
}

func matches(item content.Item, needle string) bool {
	for _, field := range []string{item.Title, item.Description, item.Category, string(item.Type)} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
