package site_test

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/site"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/testutil"
)

func renderPage(t *testing.T, s *testutil.Site, req site.Request) (int, *goquery.Document) {
	t.Helper()
	var buf bytes.Buffer
	status, err := s.Render(context.Background(), &buf, req)
	require.NoError(t, err)
	return status, testutil.Document(t, buf.Bytes())
}

func TestHomeShowsLatestPostsAndFirstCourses(t *testing.T) {
	s := testutil.NewSite(t)
	status, doc := renderPage(t, s, site.Request{Path: "/"})
	require.Equal(t, http.StatusOK, status)

	require.Equal(t, []string{
		"posts-container-card-post-2",
		"posts-container-card-post-3",
		"posts-container-card-post-1",
	}, testutil.IDs(doc.Find("#posts-container article")))
	require.Equal(t, []string{
		"courses-container-card-course-10",
		"courses-container-card-course-11",
		"courses-container-card-course-12",
	}, testutil.IDs(doc.Find("#courses-container > a")))

	revealIDs, _ := doc.Find("body").Attr("data-reveal-ids")
	require.Contains(t, strings.Fields(revealIDs), "posts-container-card-post-2")
	require.Len(t, strings.Fields(revealIDs), 6)

	active, _ := doc.Find("#nav-links a.active").Attr("data-nav")
	require.Equal(t, "home", active)
	require.Equal(t, "guest", attr(doc.Find("#auth-container"), "data-auth-state"))
}

func TestDailyFilterAndTitle(t *testing.T) {
	s := testutil.NewSite(t)
	_, doc := renderPage(t, s, site.Request{Path: "/daily.html", Query: url.Values{"category": {"python"}}})

	require.Equal(t, "Python Posts", doc.Find("#grid-title").Text())
	require.Equal(t, []string{
		"posts-container-card-daily-100",
		"posts-container-card-post-1",
	}, testutil.IDs(doc.Find("#posts-container article")))
	require.Equal(t, "python", attr(doc.Find("#filter-bar a.active"), "data-filter"))
	require.Equal(t, "python", attr(doc.Find("#posts-container"), "data-grid-filter"))
}

func TestDailyUnknownCategoryShowsPlaceholder(t *testing.T) {
	s := testutil.NewSite(t)
	_, doc := renderPage(t, s, site.Request{Path: "/daily.html", Query: url.Values{"category": {"robotics"}}})

	require.Zero(t, doc.Find("#posts-container article").Length())
	require.Equal(t, "No posts found.", doc.Find("#posts-container [data-grid-empty]").Text())
}

func TestCoursesNetworkingFilterUsesFallbackURL(t *testing.T) {
	s := testutil.NewSite(t)
	_, doc := renderPage(t, s, site.Request{Path: "/courses.html", Query: url.Values{"category": {"networking"}}})

	require.Equal(t, "Networking Courses", doc.Find("#grid-title").Text())
	cards := doc.Find("#courses-container > a")
	require.Equal(t, 1, cards.Length())
	require.Equal(t, "courses/networking.html", attr(cards, "href"))
	require.Equal(t, "networking-course", attr(cards, "data-card-type"))
}

func TestChallengesSplitsActiveAndPast(t *testing.T) {
	s := testutil.NewSite(t)
	_, doc := renderPage(t, s, site.Request{Path: "/challenges.html"})

	require.Equal(t, 1, doc.Find("#active-challenge-container [data-active-challenge]").Length())
	require.Equal(t, "challenges/emoji-picker/check", attr(doc.Find(`form[data-fragment-target="challenge-feedback"]`), "action"))
	require.Equal(t, "challenges/emoji-picker/comments", attr(doc.Find("#comments"), "data-comments-endpoint"))
	require.Equal(t, []string{"past-challenges-grid-card-challenge-calculator"}, testutil.IDs(doc.Find("#past-challenges-grid > div")))
}

func TestLevelPages(t *testing.T) {
	s := testutil.NewSite(t)

	status, doc := renderPage(t, s, site.Request{Path: "/curriculum/level-1.html"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Little Explorers", doc.Find("#level-title").Text())
	require.Equal(t, 2, doc.Find("#modules-container .module-card").Length())
	require.Equal(t, "../assets/site.css", attr(doc.Find(`link[rel="stylesheet"]`), "href"))
	require.Equal(t, "courses", attr(doc.Find("#nav-links a.active"), "data-nav"))

	status, doc = renderPage(t, s, site.Request{Path: "/curriculum/level.html", Query: url.Values{"level": {"2"}}})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Junior Coders", doc.Find("#level-title").Text())

	status, doc = renderPage(t, s, site.Request{Path: "/curriculum/level.html", Query: url.Values{"level": {"9"}}})
	require.Equal(t, http.StatusNotFound, status)
	require.Contains(t, doc.Find("[data-level-missing] h2").Text(), "Level Not Found")
	require.Equal(t, "../curriculum.html", attr(doc.Find("[data-level-missing] a"), "href"))
}

func TestCurriculumIndexLinksToLevelPages(t *testing.T) {
	s := testutil.NewSite(t)
	_, doc := renderPage(t, s, site.Request{Path: "/curriculum.html"})

	links := doc.Find("#levels-container a")
	require.Equal(t, 2, links.Length())
	require.Equal(t, "curriculum/level-1.html", attr(links.First(), "href"))
}

func TestMarkdownPages(t *testing.T) {
	s := testutil.NewSite(t)

	_, doc := renderPage(t, s, site.Request{Path: "/about.html"})
	require.Equal(t, "About Us | KidsDev Academy", doc.Find("title").Text())
	require.Equal(t, "Our Mission", doc.Find("#page-body h1#our-mission").Text())
	require.Equal(t, "about", attr(doc.Find("#nav-links a.active"), "data-nav"))

	_, doc = renderPage(t, s, site.Request{Path: "/faq.html"})
	require.Equal(t, 1, doc.Find(".faq-item").Length())

	_, doc = renderPage(t, s, site.Request{Path: "/contact.html"})
	require.Equal(t, 1, doc.Find("#contact-form").Length())
	require.Equal(t, "kidsdevteam@gmail.com", doc.Find("#contact-email").Text())

	status, doc := renderPage(t, s, site.Request{Path: "/nope.html"})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, 1, doc.Find("#not-found").Length())
}

type profiles map[string]string

func (p profiles) DisplayName(_ context.Context, uid string) (string, error) {
	return p[uid], nil
}

func TestAuthenticatedHeader(t *testing.T) {
	s := testutil.NewSite(t, func(o *site.Options) {
		o.Profiles = profiles{"u1": "Ada"}
	})
	stream := authstate.NewBroadcaster()
	stream.Publish(authstate.Authenticated{User: authstate.User{UID: "u1", Email: "ada@example.com"}})

	_, doc := renderPage(t, s, site.Request{Path: "/dashboard.html", Auth: stream, Revealed: true})
	require.Equal(t, "authenticated", attr(doc.Find("#auth-container"), "data-auth-state"))
	require.Equal(t, "Ada", doc.Find("[data-auth-name]").Text())
	require.Contains(t, doc.Find("[data-dashboard-email]").Text(), "ada@example.com")
	require.False(t, doc.Find("body").HasClass("opacity-0"))
}

func TestProtectedPageHiddenUntilRevealed(t *testing.T) {
	s := testutil.NewSite(t)
	_, doc := renderPage(t, s, site.Request{Path: "/dashboard.html"})
	require.True(t, doc.Find("body").HasClass("opacity-0"))
	require.Equal(t, "pending", attr(doc.Find("body"), "data-protected"))
}

func TestChallengeLookup(t *testing.T) {
	s := testutil.NewSite(t)
	item, ok := s.Challenge("emoji-picker")
	require.True(t, ok)
	require.Equal(t, []string{"import random", "print("}, item.Keywords)

	_, ok = s.Challenge("missing")
	require.False(t, ok)
}

func attr(sel *goquery.Selection, name string) string {
	v, _ := sel.First().Attr(name)
	return v
}
