package search

import (
	"strings"

	"github.com/a-h/templ"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/cards"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
)

// DefaultResultURL is used for results without their own link.
const DefaultResultURL = "challenges.html"

// ResultView builds the compact card for one search hit.
func ResultView(item content.Item, prefix string) cards.View {
	v := cards.Build(item, prefix)
	switch item.Type.Family() {
	case content.TypeCourse:
		v.Icon = "graduation-cap"
	case content.TypeChallenge:
		v.Icon = "trophy"
	default:
		v.Icon = "file-text"
	}
	if strings.TrimSpace(item.URL) == "" {
		v.Href = paths.Apply(prefix, DefaultResultURL)
	}
	return v
}

// Overlay renders the search overlay from the state of sf. A nil surface renders the closed,
// reset overlay that every page embeds.
func Overlay(sf *Surface, prefix string) templ.Component {
	open, res := false, Result{State: StateNotSearched}
	if sf != nil {
		open, res = sf.IsOpen(), sf.Result()
	}
	return overlay(open, res, prefix)
}
