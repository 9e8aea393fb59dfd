package pages

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
)

func TestResolve(t *testing.T) {
	require.Equal(t, KindHome, Resolve("/").Kind)
	require.Equal(t, KindHome, Resolve("index.html").Kind)
	require.Equal(t, KindDaily, Resolve("/daily.html").Kind)
	require.Equal(t, KindLevel, Resolve("/curriculum/level.html").Kind)
	require.True(t, Resolve("/dashboard.html").Protected)

	lvl := Resolve("/curriculum/level-3.html")
	require.Equal(t, KindLevel, lvl.Kind)
	require.Equal(t, "3", lvl.Slug)
	require.Equal(t, "curriculum/level-3.html", LevelPath("3"))

	r := Resolve("/courses/web/intro.html")
	require.Equal(t, KindMarkdown, r.Kind)
	require.Equal(t, "courses/web/intro", r.Slug)

	require.Equal(t, KindNotFound, Resolve("/data/posts.json").Kind)
	require.Equal(t, "page", KindMarkdown.String())
}

func TestLoadLibrary(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/about.md": {Data: []byte("---\ntitle: About Us\nsummary: Who we are\n---\n\n# Hello\n\nWe teach <script>alert(1)</script>kids.\n")},
		"pages/courses/web/intro-to-html.md": {Data: []byte("Some **bold** text.\n")},
		"pages/drafts.md":                    {Data: []byte("---\ndraft: true\n---\nhidden\n")},
		"pages/notes.txt":                    {Data: []byte("ignored")},
	}
	lib, err := LoadLibrary(fsys, "pages")
	require.NoError(t, err)
	require.Equal(t, []string{"about", "courses/web/intro-to-html"}, lib.Slugs())

	about, err := lib.Lookup("about")
	require.NoError(t, err)
	require.Equal(t, "About Us", about.Title)
	require.Equal(t, "Who we are", about.Description)
	require.Contains(t, string(about.Body), `<h1 id="hello">Hello</h1>`)
	require.NotContains(t, string(about.Body), "<script>")

	intro, err := lib.Lookup("/courses/web/intro-to-html")
	require.NoError(t, err)
	require.Equal(t, "Intro To Html", intro.Title)
	require.Contains(t, string(intro.Body), "<strong>bold</strong>")

	_, err = lib.Lookup("drafts")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadLibraryMissingDir(t *testing.T) {
	lib, err := LoadLibrary(fstest.MapFS{}, "pages")
	require.NoError(t, err)
	require.Empty(t, lib.Slugs())
}

func TestFAQ(t *testing.T) {
	html, err := markup.String(context.Background(), FAQ([]FAQEntry{
		{Question: "What age?", Answer: "7 and up."},
		{Question: "Cost?", Answer: "Free."},
	}))
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Equal(t, 2, doc.Find(".faq-item").Length())
	require.Equal(t, "Free.", doc.Find(".faq-answer").Eq(1).Text())

	html, err = markup.String(context.Background(), FAQ(nil))
	require.NoError(t, err)
	require.Empty(t, html)
}
