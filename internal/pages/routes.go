// Package pages maps request paths to page kinds and loads the site's markdown pages.
package pages

import (
	"path"
	"regexp"
	"strings"
)

// Kind identifies which page a request renders. It replaces probing the document for the
// containers a page happens to contain.
type Kind int

const (
	KindNotFound Kind = iota
	KindHome
	KindDaily
	KindCourses
	KindChallenges
	KindCurriculum
	KindLevel
	KindDashboard
	KindLogin
	KindMarkdown
)

var kindNames = map[Kind]string{
	KindNotFound:   "not-found",
	KindHome:       "home",
	KindDaily:      "daily",
	KindCourses:    "courses",
	KindChallenges: "challenges",
	KindCurriculum: "curriculum",
	KindLevel:      "level",
	KindDashboard:  "dashboard",
	KindLogin:      "login",
	KindMarkdown:   "page",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Route is one entry of the route table.
type Route struct {
	Path      string
	Kind      Kind
	Title     string
	Protected bool
	// Slug is set for markdown pages.
	Slug string
}

// Table lists the fixed pages. Paths mirror the files of the exported site.
var Table = []Route{
	{Path: "/index.html", Kind: KindHome, Title: "Home"},
	{Path: "/daily.html", Kind: KindDaily, Title: "Daily Tips"},
	{Path: "/courses.html", Kind: KindCourses, Title: "Courses"},
	{Path: "/challenges.html", Kind: KindChallenges, Title: "Challenges"},
	{Path: "/curriculum.html", Kind: KindCurriculum, Title: "Curriculum"},
	{Path: "/curriculum/level.html", Kind: KindLevel, Title: "Level"},
	{Path: "/dashboard.html", Kind: KindDashboard, Title: "Dashboard", Protected: true},
	{Path: "/login.html", Kind: KindLogin, Title: "Sign In"},
}

var levelPage = regexp.MustCompile(`^/curriculum/level-([0-9]+)\.html$`)

// LevelPath is the static page of one curriculum level.
func LevelPath(id string) string {
	return "curriculum/level-" + id + ".html"
}

// Resolve finds the route for a request path. Per-level pages carry the level id as Slug.
// Any other ".html" path is a markdown page candidate; the caller still has to look its slug up.
func Resolve(requestPath string) Route {
	p := path.Clean("/" + strings.TrimPrefix(requestPath, "/"))
	if p == "/" {
		p = "/index.html"
	}
	for _, r := range Table {
		if r.Path == p {
			return r
		}
	}
	if m := levelPage.FindStringSubmatch(p); m != nil {
		return Route{Path: p, Kind: KindLevel, Title: "Level", Slug: m[1]}
	}
	if strings.HasSuffix(p, ".html") {
		return Route{Path: p, Kind: KindMarkdown, Slug: strings.TrimSuffix(strings.TrimPrefix(p, "/"), ".html")}
	}
	return Route{Path: p, Kind: KindNotFound}
}
