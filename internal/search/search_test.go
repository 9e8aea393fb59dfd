package search

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

type staticSource []content.Item

func (s staticSource) Items() []content.Item { return s }

var catalogue = staticSource{
	{ID: "1", Type: content.TypePost, Title: "Loops in Python", Category: "Programming", URL: "posts/loops.html"},
	{ID: "2", Type: content.TypeCourse, Title: "HTML Basics", Description: "Build your first page", Category: "Web Dev"},
	{ID: "3", Type: content.TypeChallenge, Title: "Snake Game", Description: "use python loops"},
}

func TestQueryStates(t *testing.T) {
	idx := NewIndex(catalogue, 2)

	res := idx.Query("p")
	require.Equal(t, StateNotSearched, res.State)
	require.Empty(t, res.Items)

	res = idx.Query("zzz")
	require.Equal(t, StateNoResults, res.State)

	res = idx.Query("  PYTHON ")
	require.Equal(t, StateResults, res.State)
	require.Equal(t, "PYTHON", res.Term)
	require.Len(t, res.Items, 2)
	require.Equal(t, "1", res.Items[0].ID)
	require.Equal(t, "3", res.Items[1].ID)
}

func TestQueryMatchesType(t *testing.T) {
	res := NewIndex(catalogue, 2).Query("course")
	require.Equal(t, StateResults, res.State)
	require.Len(t, res.Items, 1)
	require.Equal(t, "HTML Basics", res.Items[0].Title)
}

func TestQueryBeforeLoad(t *testing.T) {
	require.Equal(t, StateNoResults, NewIndex(content.NewStore(content.FSFetcher{FS: fstest.MapFS{}}), 2).Query("python").State)
	require.Equal(t, StateNoResults, NewIndex(nil, 2).Query("python").State)
}

func TestMinLengthClamped(t *testing.T) {
	require.Equal(t, 1, NewIndex(catalogue, 0).MinLength())
	require.Equal(t, 2, NewIndex(catalogue, 5).MinLength())
	require.Equal(t, StateResults, NewIndex(catalogue, 1).Query("h").State)
}

func TestSurfaceResetsOnOpenAndClose(t *testing.T) {
	s := NewSurface(NewIndex(catalogue, 2))
	s.Open()
	require.True(t, s.IsOpen())
	require.Equal(t, StateResults, s.Input("snake").State)

	require.False(t, s.Key("Enter"))
	require.True(t, s.IsOpen())
	require.True(t, s.Key(KeyEscape))
	require.False(t, s.IsOpen())
	require.Equal(t, StateNotSearched, s.Result().State)

	s.Open()
	require.Equal(t, StateNotSearched, s.Result().State)
	s.Input("html")
	s.ClickOutside()
	require.False(t, s.IsOpen())
	require.Empty(t, s.Result().Term)
}

func TestResultsRendering(t *testing.T) {
	idx := NewIndex(catalogue, 2)

	html, err := markup.String(context.Background(), Results(idx.Query("python"), "../"))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	links := doc.Find("[data-card-link]")
	require.Equal(t, 2, links.Length())
	require.Equal(t, "../posts/loops.html", links.Eq(0).AttrOr("href", ""))
	require.Equal(t, "../challenges.html", links.Eq(1).AttrOr("href", ""))
	require.Equal(t, "trophy", links.Eq(1).Find("[data-card-icon]").AttrOr("data-lucide", ""))

	html, err = markup.String(context.Background(), Results(idx.Query("nothing"), ""))
	require.NoError(t, err)
	require.Contains(t, html, `data-search-state="no-results"`)
	require.Contains(t, html, "No results found")

	html, err = markup.String(context.Background(), Results(idx.Query(""), ""))
	require.NoError(t, err)
	require.Contains(t, html, `data-search-state="not-searched"`)
	require.NotContains(t, html, "No results found")
}

func TestOverlayStartsEmpty(t *testing.T) {
	html, err := markup.String(context.Background(), Overlay(nil, ""))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.True(t, doc.Find("#search-overlay").HasClass("hidden"))
	require.Equal(t, "", doc.Find("#search-input").AttrOr("value", "x"))
	require.Equal(t, "not-searched", doc.Find("#search-results").AttrOr("data-search-state", ""))
}

func TestOverlayFollowsSurface(t *testing.T) {
	sf := NewSurface(NewIndex(catalogue, 2))
	sf.Open()
	sf.Input("snake")

	html, err := markup.String(context.Background(), Overlay(sf, "../"))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.False(t, doc.Find("#search-overlay").HasClass("hidden"))
	require.Equal(t, "snake", doc.Find("#search-input").AttrOr("value", ""))
	require.Equal(t, "results", doc.Find("#search-results").AttrOr("data-search-state", ""))

	sf.ClickOutside()
	html, err = markup.String(context.Background(), Overlay(sf, "../"))
	require.NoError(t, err)
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.True(t, doc.Find("#search-overlay").HasClass("hidden"))
	require.Equal(t, "", doc.Find("#search-input").AttrOr("value", "x"))
	require.Zero(t, doc.Find("[data-card-link]").Length())
}
