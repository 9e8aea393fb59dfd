// Package grid fills page containers with filtered, ordered content cards.
package grid

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/cards"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/reveal"
)

const defaultEmptyText = "No content found."

// Container describes one grid on a page.
type Container struct {
	ID        string
	Class     string
	Types     []content.Type
	Style     cards.Style
	Limit     int
	Recency   bool
	EmptyText string
	// Prefix is the PathResolver prefix of the page hosting the grid.
	Prefix string
}

// Result summarises a render.
type Result struct {
	Container string
	IDs       []string
	Total     int
}

// Hook runs after a container has been rendered with the element ids it produced.
type Hook func(ctx context.Context, res Result)

// Controller renders containers. It is cheap to build and is normally created per page.
type Controller struct {
	delayBase time.Duration
	hooks     []Hook
}

// Option configures a Controller.
type Option func(*Controller)

// WithDelayBase sets the stagger between consecutive cards.
func WithDelayBase(d time.Duration) Option {
	return func(c *Controller) {
		c.delayBase = d
	}
}

// WithAfterRender registers hooks that run after every successful render.
func WithAfterRender(hooks ...Hook) Option {
	return func(c *Controller) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithObserver re-arms obs with the element ids of every render.
func WithObserver(obs *reveal.Observer) Option {
	return WithAfterRender(func(_ context.Context, res Result) {
		if obs != nil {
			obs.Observe(res.IDs...)
		}
	})
}

// NewController constructs a controller.
func NewController(opts ...Option) *Controller {
	c := &Controller{delayBase: reveal.DefaultDelayBase}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Select applies the container's type restriction, the filter, recency ordering and limit.
func Select(ct Container, items []content.Item, f Filter) []content.Item {
	selected := items
	if len(ct.Types) > 0 {
		selected = content.FilterTypes(items, ct.Types...)
	}
	selected = Apply(selected, f)
	if ct.Recency {
		selected = SortByRecency(selected)
	}
	if ct.Limit > 0 && len(selected) > ct.Limit {
		selected = selected[:ct.Limit]
	}
	return selected
}

// Render replaces the container's content with cards for the selected items, or the empty
// placeholder when nothing matches.
func (c *Controller) Render(ctx context.Context, w io.Writer, ct Container, items []content.Item, f Filter) (Result, error) {
	selected := Select(ct, items, f)
	res := Result{Container: ct.ID, Total: len(selected)}

	hw := markup.NewWriter(w)
	hw.Raw(`<div id="`).Text(ct.ID).Raw(`"`)
	if ct.Class != "" {
		hw.Raw(` class="`).Text(ct.Class).Raw(`"`)
	}
	hw.Raw(` data-grid data-grid-filter="`).Text(f.Key()).Raw(`">`)

	if len(selected) == 0 {
		text := ct.EmptyText
		if text == "" {
			text = defaultEmptyText
		}
		hw.Raw(`<p class="col-span-full text-center text-gray-500 py-12" data-grid-empty>`).Text(text).Raw(`</p>`)
	}

	seen := make(map[string]int, len(selected))
	for i, item := range selected {
		v := cards.Build(item, ct.Prefix)
		v.ID = uniqueID(ct.ID+"-"+v.ID, seen)
		v.Delay = reveal.Delay(i, c.delayBase)
		style := ct.Style
		if style == "" {
			style = cards.DefaultStyle(item.Type)
		}
		hw.Component(ctx, cards.Card(style, v))
		res.IDs = append(res.IDs, v.ID)
	}
	hw.Raw(`</div>`)

	if err := hw.Err(); err != nil {
		return Result{}, fmt.Errorf("grid: render %s: %w", ct.ID, err)
	}
	for _, hook := range c.hooks {
		hook(ctx, res)
	}
	return res, nil
}

// Component wraps Render for use inside page templates.
func (c *Controller) Component(ct Container, items []content.Item, f Filter) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := c.Render(ctx, w, ct, items, f)
		return err
	})
}

// uniqueID returns id, or the first free id-N when id is taken. Both the base and the
// suffixed form are recorded so a later item whose own id is "x-2" cannot collide.
func uniqueID(id string, seen map[string]int) string {
	n := seen[id]
	seen[id] = n + 1
	if n == 0 {
		return id
	}
	for {
		n++
		candidate := id + "-" + strconv.Itoa(n)
		if seen[candidate] == 0 {
			seen[candidate] = 1
			seen[id] = n
			return candidate
		}
	}
}
