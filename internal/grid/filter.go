package grid

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
)

// Filter is a category filter key. The empty key and "all" disable filtering.
type Filter string

// Key returns the normalised key: lower-cased, trimmed, with dashes and underscores as spaces.
func (f Filter) Key() string {
	return normalize(string(f))
}

var separators = strings.NewReplacer("-", " ", "_", " ", "+", " ")

// normalize folds case and treats dashes, underscores and plus signs as spaces, so filter keys
// and categories compare in the same form.
func normalize(v string) string {
	v = separators.Replace(strings.ToLower(strings.TrimSpace(v)))
	return strings.Join(strings.Fields(v), " ")
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	key := f.Key()
	return key != "" && key != "all"
}

type synonym struct {
	terms []string
	types []content.Type
}

// courseSynonyms widens course-family filters. Keys not listed fall back to substring matching.
var courseSynonyms = map[string]synonym{
	"programming": {terms: []string{"programming", "python", "logic", "code"}},
	"web dev":     {terms: []string{"web", "html"}},
	"networking":  {terms: []string{"network", "cyber"}, types: []content.Type{content.TypeNetworking}},
}

// Match reports whether item passes the filter. Course-family items honour the synonym table;
// everything else matches by case-insensitive substring on the category.
func Match(item content.Item, f Filter) bool {
	if !f.Active() {
		return true
	}
	key := f.Key()
	category := normalize(item.Category)
	if item.Type.Family() == content.TypeCourse {
		if syn, ok := courseSynonyms[key]; ok {
			for _, t := range syn.types {
				if item.Type == t {
					return true
				}
			}
			for _, term := range syn.terms {
				if strings.Contains(category, term) {
					return true
				}
			}
			return false
		}
	}
	return strings.Contains(category, key)
}

// Apply returns the items that pass f, preserving order.
func Apply(items []content.Item, f Filter) []content.Item {
	out := make([]content.Item, 0, len(items))
	for _, item := range items {
		if Match(item, f) {
			out = append(out, item)
		}
	}
	return out
}

// SortByRecency returns a copy ordered newest first. Dated items precede undated ones; ties and
// undated items are ordered by id, numeric ids before other ids, largest first.
func SortByRecency(items []content.Item) []content.Item {
	out := make([]content.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return newer(out[i], out[j])
	})
	return out
}

func newer(a, b content.Item) bool {
	ta, okA := content.ParseDate(a.Date)
	tb, okB := content.ParseDate(b.Date)
	switch {
	case okA && okB:
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return idAfter(a, b)
	case okA != okB:
		return okA
	default:
		return idAfter(a, b)
	}
}

func idAfter(a, b content.Item) bool {
	na, numA := a.NumericID()
	nb, numB := b.NumericID()
	switch {
	case numA && numB:
		return na > nb
	case numA != numB:
		return numA
	case a.ID != "" && b.ID != "":
		return a.ID > b.ID
	default:
		return a.ID != "" && b.ID == ""
	}
}

var titleCaser = cases.Title(language.English)

// Title builds a grid heading such as "All Posts" or "Web Dev Posts".
func Title(f Filter, noun string) string {
	if !f.Active() {
		return strings.TrimSpace("All " + noun)
	}
	return strings.TrimSpace(titleCaser.String(f.Key()) + " " + noun)
}

// SplitChallenges separates the first challenge whose status is "active" from the rest.
func SplitChallenges(items []content.Item) (*content.Item, []content.Item) {
	var active *content.Item
	past := make([]content.Item, 0, len(items))
	for _, item := range items {
		if active == nil && strings.EqualFold(strings.TrimSpace(item.Status), "active") {
			item := item
			active = &item
			continue
		}
		past = append(past, item)
	}
	return active, past
}
