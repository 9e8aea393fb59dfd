package cards

import (
	"context"
	"fmt"
	"time"

	"github.com/a-h/templ"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

// Style selects the card layout.
type Style string

const (
	StylePost            Style = "post"
	StyleCourse          Style = "course"
	StyleChallengeActive Style = "challenge-active"
	StyleChallengePast   Style = "challenge-past"
	StyleCompact         Style = "compact"
)

// DefaultStyle picks the layout normally used for a content type.
func DefaultStyle(t content.Type) Style {
	switch t.Family() {
	case content.TypeCourse:
		return StyleCourse
	case content.TypeChallenge:
		return StyleChallengePast
	default:
		return StylePost
	}
}

// Render builds and renders one card to a string.
func Render(ctx context.Context, item content.Item, prefix string, style Style) (string, error) {
	return markup.String(ctx, Card(style, Build(item, prefix)))
}

func delayStyle(d time.Duration) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("transition-delay:%dms", d.Milliseconds()))
}
