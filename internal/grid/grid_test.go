package grid

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/cards"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/reveal"
)

func titles(items []content.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}

func TestCourseSynonyms(t *testing.T) {
	python := content.Item{Type: content.TypeCourse, Title: "Python Basics", Category: "Python"}
	web := content.Item{Type: content.TypeCourse, Title: "Web Layout", Category: "Web Dev"}
	cyber := content.Item{Type: content.TypeCourse, Title: "Stay Safe", Category: "Cyber Security"}
	ip := content.Item{Type: content.TypeNetworking, Title: "Intro to IP", Category: "Basics"}

	require.True(t, Match(python, "programming"))
	require.False(t, Match(web, "programming"))
	require.True(t, Match(web, "web-dev"))
	require.True(t, Match(cyber, "Networking"))
	require.True(t, Match(ip, "networking"))
	require.False(t, Match(python, "networking"))
}

func TestSubstringMatchOutsideCourses(t *testing.T) {
	post := content.Item{Type: content.TypePost, Title: "p", Category: "Python Tips"}
	require.True(t, Match(post, "python"))
	require.False(t, Match(post, "programming"))
	require.True(t, Match(post, ""))
	require.True(t, Match(post, "ALL"))
}

func TestSortByRecency(t *testing.T) {
	items := []content.Item{
		{ID: "1", Title: "jan", Date: "2024-01-01"},
		{ID: "2", Title: "undated-2"},
		{ID: "3", Title: "mar", Date: "2024-03-01"},
		{ID: "10", Title: "undated-10"},
		{ID: "5", Title: "garbled", Date: "someday"},
	}
	require.Equal(t, []string{"mar", "jan", "undated-10", "garbled", "undated-2"}, titles(SortByRecency(items)))
	require.Equal(t, "jan", items[0].Title, "input untouched")
}

func TestTitle(t *testing.T) {
	require.Equal(t, "All Posts", Title("", "Posts"))
	require.Equal(t, "All Posts", Title("all", "Posts"))
	require.Equal(t, "Web Dev Posts", Title("web-dev", "Posts"))
}

func TestSplitChallenges(t *testing.T) {
	active, past := SplitChallenges([]content.Item{
		{Title: "old", Status: "ended"},
		{Title: "now", Status: "Active"},
		{Title: "also", Status: "active"},
	})
	require.NotNil(t, active)
	require.Equal(t, "now", active.Title)
	require.Equal(t, []string{"old", "also"}, titles(past))

	active, past = SplitChallenges(nil)
	require.Nil(t, active)
	require.Empty(t, past)
}

func TestMatchFoldsSeparatorsInCategory(t *testing.T) {
	post := content.Item{Type: content.TypePost, Title: "p", Category: "Game-Dev"}
	require.True(t, Match(post, "Game-Dev"))
	require.True(t, Match(post, "game dev"))
	require.True(t, Match(post, "game_dev"))
	require.False(t, Match(post, "gamedev"))

	course := content.Item{Type: content.TypeCourse, Title: "Layout", Category: "Web-Dev"}
	require.True(t, Match(course, "web-dev"))
}

func TestUniqueIDSkipsTakenSuffixes(t *testing.T) {
	seen := map[string]int{}
	got := []string{
		uniqueID("x", seen),
		uniqueID("x", seen),
		uniqueID("x-2", seen),
		uniqueID("x", seen),
	}
	require.Equal(t, []string{"x", "x-2", "x-2-2", "x-3"}, got)

	seen = map[string]int{}
	require.Equal(t, "y-2", uniqueID("y-2", seen))
	require.Equal(t, "y", uniqueID("y", seen))
	require.Equal(t, "y-3", uniqueID("y", seen))
}

func TestRenderFiltersLimitsAndRearmsObserver(t *testing.T) {
	items := []content.Item{
		{ID: "1", Type: content.TypePost, Title: "Old", Date: "2023-01-01"},
		{ID: "2", Type: content.TypeCourse, Title: "Course"},
		{ID: "3", Type: content.TypePost, Title: "New", Date: "2024-01-01"},
		{ID: "3", Type: content.TypePost, Title: "Dup", Date: "2022-01-01"},
	}
	obs := reveal.NewObserver(reveal.DefaultThreshold)
	var hooked []Result
	c := NewController(WithObserver(obs), WithAfterRender(func(_ context.Context, res Result) {
		hooked = append(hooked, res)
	}))

	var buf bytes.Buffer
	res, err := c.Render(context.Background(), &buf, Container{
		ID:      "posts-container",
		Types:   []content.Type{content.TypePost},
		Recency: true,
		Limit:   3,
		Prefix:  "../",
	}, items, "")
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Len(t, hooked, 1)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	var got []string
	doc.Find("#posts-container article h3").Each(func(_ int, s *goquery.Selection) {
		got = append(got, s.Text())
	})
	require.Equal(t, []string{"New", "Old", "Dup"}, got)
	require.Equal(t, []string{"posts-container-card-post-3", "posts-container-card-post-1", "posts-container-card-post-3-2"}, res.IDs)
	require.ElementsMatch(t, res.IDs, obs.Pending())
	require.Contains(t, doc.Find("article").Eq(1).AttrOr("style", ""), "transition-delay:150ms")
}

func TestRenderEmptyPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	c := NewController()
	res, err := c.Render(context.Background(), &buf, Container{
		ID:        "courses-grid",
		Types:     []content.Type{content.TypeCourse, content.TypeNetworking},
		Style:     cards.StyleCourse,
		EmptyText: "No courses found.",
	}, []content.Item{{Type: content.TypeCourse, Title: "Web", Category: "Web Dev"}}, "programming")
	require.NoError(t, err)
	require.Zero(t, res.Total)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Equal(t, "No courses found.", doc.Find("[data-grid-empty]").Text())
	require.Equal(t, "programming", doc.Find("#courses-grid").AttrOr("data-grid-filter", ""))
}
