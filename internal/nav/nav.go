// Package nav builds the site header navigation with the active entry marked.
package nav

import (
	"path"
	"strings"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
)

// Item is a top-level navigation entry.
type Item struct {
	Key   string
	Path  string // relative to the site root, e.g. "courses.html"
	Label string
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Key    string
	Href   string
	Label  string
	Active bool
}

// Main is the header navigation.
var Main = []Item{
	{Key: "home", Path: "index.html", Label: "Home"},
	{Key: "daily", Path: "daily.html", Label: "Daily Tips"},
	{Key: "courses", Path: "courses.html", Label: "Courses"},
	{Key: "challenges", Path: "challenges.html", Label: "Challenges"},
	{Key: "about", Path: "about.html", Label: "About"},
	{Key: "contact", Path: "contact.html", Label: "Contact"},
}

// rules are checked in order; the first match wins.
var rules = []struct {
	key     string
	matches func(p string) bool
}{
	{key: "daily", matches: func(p string) bool { return strings.Contains(p, "daily") || strings.Contains(p, "/posts/") }},
	{key: "courses", matches: func(p string) bool { return strings.Contains(p, "courses") || strings.Contains(p, "curriculum") }},
	{key: "contact", matches: func(p string) bool { return strings.Contains(p, "contact") }},
	{key: "about", matches: func(p string) bool { return strings.Contains(p, "about") }},
	{key: "challenges", matches: func(p string) bool { return strings.Contains(p, "challenges") }},
}

// ActiveKey returns the key of the entry to highlight for currentPath.
func ActiveKey(currentPath string) string {
	p := strings.ToLower(path.Clean("/" + strings.TrimPrefix(currentPath, "/")))
	for _, rule := range rules {
		if rule.matches(p) {
			return rule.key
		}
	}
	if p == "/" || p == "/index.html" {
		return "home"
	}
	return ""
}

// Build renders the header items for currentPath. Links carry the page's PathResolver prefix.
func Build(currentPath, prefix string) []RenderedItem {
	active := ActiveKey(currentPath)
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Key:    it.Key,
			Href:   paths.Apply(prefix, it.Path),
			Label:  it.Label,
			Active: it.Key == active,
		})
	}
	return items
}
