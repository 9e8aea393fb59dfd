package paths

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefix(t *testing.T) {
	r := New()

	cases := []struct {
		path string
		want string
	}{
		{"/", ""},
		{"/index.html", ""},
		{"/daily.html", ""},
		{"/courses/networking.html", "../"},
		{"/courses/sub/page.html", "../../"},
		{"/posts/intro.html?x=1", "../"},
		{"/about/team.html", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, r.Prefix(tc.path), tc.path)
	}
}

func TestPrefixResolvesToSiteRoot(t *testing.T) {
	r := New()
	page := "/courses/sub/page.html"

	link := r.Link(page, "data/x.json")
	require.Equal(t, "../../data/x.json", link)
	require.Equal(t, "/data/x.json", Resolve(page, link))

	for _, page := range []string{"/index.html", "/posts/a.html", "/challenges/2024/week/one.html"} {
		require.Equal(t, "/data/x.json", Resolve(page, r.Link(page, "data/x.json")), page)
	}
}

func TestApplyPassthrough(t *testing.T) {
	for _, target := range []string{"", "#", "#top", "/abs/path", "http://example.com/a", "https://example.com", "mailto:kids@example.com"} {
		require.Equal(t, target, Apply("../../", target), target)
	}
	require.Equal(t, "../courses.html", Apply("../", "courses.html"))
}

func TestCustomMarkers(t *testing.T) {
	r := New("lessons", "/labs/")
	require.Equal(t, "../", r.Prefix("/lessons/one.html"))
	require.Equal(t, "../", r.Prefix("/labs/two.html"))
	require.Equal(t, "", r.Prefix("/courses/three.html"))
}
