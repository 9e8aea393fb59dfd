package cards

import (
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/format"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
)

const placeholderImageBase = "https://placehold.co/600x400?text="

// descriptionPolicy strips any markup authors leave in card descriptions.
var descriptionPolicy = bluemonday.StrictPolicy()

// Badge is the coloured label shown on a card.
type Badge struct {
	Label string
	Class string
}

// View is the rendering-ready form of one content item.
type View struct {
	ID          string
	Type        content.Type
	Title       string
	Description string
	Category    string
	Href        string
	Image       string
	Placeholder bool
	Badge       Badge
	Icon        string
	CTA         string
	Date        string
	DateISO     string
	Topics      []string
	Status      string
	StatusClass string
	Level       string
	Duration    string
	Tech        string
	Difficulty  string
	Deadline    string
	Delay       time.Duration
}

type presentation struct {
	badgeClass string
	icon       string
	cta        string
}

var presentations = map[content.Type]presentation{
	content.TypePost:       {badgeClass: "text-[#4CC9F0]", icon: "file-text", cta: "Read More"},
	content.TypeCourse:     {badgeClass: "text-[#FFE66D]", icon: "graduation-cap", cta: "Start Course"},
	content.TypeNetworking: {badgeClass: "text-[#4ADE80]", icon: "network", cta: "Start Course"},
	content.TypeChallenge:  {badgeClass: "text-[#A66CFF]", icon: "trophy", cta: "View Challenge"},
	content.TypeDaily:      {badgeClass: "text-[#F97316]", icon: "lightbulb", cta: "Read Tip"},
}

var articlePresentation = presentation{badgeClass: "text-gray-400", icon: "file-text", cta: "Read Article"}

// courseIcons is checked in order against the lower-cased category.
var courseIcons = []struct {
	match string
	icon  string
}{
	{match: "web", icon: "globe"},
	{match: "programming", icon: "code"},
	{match: "python", icon: "code"},
	{match: "network", icon: "network"},
	{match: "game", icon: "gamepad-2"},
}

// Build maps item to its view model. prefix is the PathResolver prefix of the page the card
// is rendered on.
func Build(item content.Item, prefix string) View {
	p, ok := presentations[item.Type]
	if !ok {
		p = articlePresentation
	}
	icon := p.icon
	if item.Type.Family() == content.TypeCourse {
		icon = courseIcon(item.Category, icon)
	}

	label := strings.TrimSpace(item.Category)
	if label == "" {
		label = string(item.Type)
	}
	if label == "" {
		label = "article"
	}

	v := View{
		ID:          elementID(item),
		Type:        item.Type,
		Title:       item.Title,
		Description: plainText(item.Description),
		Category:    item.Category,
		Href:        link(item.URL, prefix),
		Badge:       Badge{Label: label, Class: p.badgeClass},
		Icon:        icon,
		CTA:         p.cta,
		Level:       item.Level,
		Duration:    item.Duration,
		Tech:        item.Tech,
		Difficulty:  item.Difficulty,
		Deadline:    item.Deadline,
		Status:      strings.TrimSpace(item.Status),
	}

	if img := strings.TrimSpace(item.Image); img != "" {
		v.Image = paths.Apply(prefix, img)
	} else {
		v.Image = PlaceholderImage(item)
		v.Placeholder = true
	}

	if item.Date != "" {
		v.Date = format.ShortDate(item.Date)
		if t, ok := content.ParseDate(item.Date); ok {
			v.DateISO = format.ISODate(t)
		}
	}

	for _, topic := range item.Topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			v.Topics = append(v.Topics, topic)
		}
	}

	if v.Status != "" {
		v.StatusClass = statusClass(v.Status)
	}
	return v
}

func plainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(descriptionPolicy.Sanitize(s)))
}

func courseIcon(category, fallback string) string {
	lower := strings.ToLower(category)
	for _, ci := range courseIcons {
		if strings.Contains(lower, ci.match) {
			return ci.icon
		}
	}
	return fallback
}

func link(target, prefix string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return "#"
	}
	return paths.Apply(prefix, target)
}

func statusClass(status string) string {
	switch strings.ToLower(status) {
	case "new":
		return "text-[#4CC9F0] bg-[#4CC9F0]/10"
	case "coming soon":
		return "text-gray-300 bg-gray-700"
	default:
		return "text-[#FFE66D] bg-[#FFE66D]/10"
	}
}

// PlaceholderImage returns the generated thumbnail used when an item has no image.
func PlaceholderImage(item content.Item) string {
	text := strings.TrimSpace(item.Title)
	if text == "" {
		text = string(item.Type)
	}
	return placeholderImageBase + url.QueryEscape(text)
}

func elementID(item content.Item) string {
	key := item.ID
	if key == "" {
		key = item.Title
	}
	return "card-" + Slug(string(item.Type)) + "-" + Slug(key)
}

// Slug lower-cases s and joins its alphanumeric runs with dashes.
func Slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
