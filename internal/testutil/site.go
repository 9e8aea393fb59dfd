package testutil

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/curriculum"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/pages"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/site"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/views"
)

const posts = `[
  {"id": 1, "title": "Loops Explained", "desc": "Repeat yourself less.", "category": "Python", "date": "2024-01-10", "url": "posts/loops.html"},
  {"id": 2, "title": "Build a Web Page", "desc": "Your first HTML file.", "category": "Web Dev", "date": "2024-03-05", "url": "posts/web-page.html"},
  {"id": 3, "title": "Game Ideas", "desc": "Sketch before you code.", "category": "Game Dev", "date": "2024-02-20", "url": "posts/game-ideas.html"},
  {"id": 4, "title": "Hello Scratch", "desc": "Drag, drop, run.", "category": "Scratch"}
]`

const courses = `[
  {"id": 10, "title": "Python Basics", "desc": "Variables and loops.", "category": "Programming", "level": "Beginner", "duration": "6 weeks", "status": "New", "url": "courses/python.html"},
  {"id": 11, "title": "HTML & CSS", "desc": "Make pages.", "category": "Web Development", "level": "Beginner", "duration": "4 weeks", "status": "Popular", "url": "courses/web.html"},
  {"id": 12, "title": "Unity Starter", "desc": "Make games.", "category": "Game Dev", "status": "Coming Soon"}
]`

const networking = `[
  {"id": "n1", "title": "How the Internet Works", "desc": "Packets and routers."}
]`

const challenges = `[
  {"id": "emoji-picker", "title": "Emoji Picker", "desc": "Pick an emoji at random.", "tech": "Python", "difficulty": "Easy", "deadline": "Friday", "status": "active", "keywords": ["import random", "print("]},
  {"id": "calculator", "title": "Calculator", "desc": "Add two numbers.", "tech": "Python", "difficulty": "Easy", "status": "ended"}
]`

const daily = `[
  {"id": 100, "title": "Tip: Indentation", "desc": "Spaces matter in Python.", "category": "Python", "date": "2024-03-06"}
]`

const aboutPage = `---
title: About Us
summary: Who we are.
---

# Our Mission

We teach kids to build things.
`

const faqPage = `---
title: FAQ
---

Common questions.
`

const contactPage = `---
title: Contact
---

Say hello.
`

const curriculumDoc = `levels:
  - id: "1"
    title: Little Explorers
    age: Ages 6-9
    description: Block coding basics.
    modules:
      - title: Sequences
        desc: Steps in order.
      - title: Loops
        desc: Repeat steps.
    projects: [Dancing Cat]
    skills: [Logic]
  - id: "2"
    title: Junior Coders
    age: Ages 10-13
    description: HTML, CSS and Python.
`

// ContentFS returns the content directory used by page tests.
func ContentFS() fstest.MapFS {
	return fstest.MapFS{
		"data/posts.json":      {Data: []byte(posts)},
		"data/courses.json":    {Data: []byte(courses)},
		"data/networking.json": {Data: []byte(networking)},
		"data/challenges.json": {Data: []byte(challenges)},
		"data/daily.json":      {Data: []byte(daily)},
		"pages/about.md":       {Data: []byte(aboutPage)},
		"pages/faq.md":         {Data: []byte(faqPage)},
		"pages/contact.md":     {Data: []byte(contactPage)},
		"curriculum.yaml":      {Data: []byte(curriculumDoc)},
	}
}

// Config returns the default configuration without reading the environment.
func Config(t testing.TB) config.Config {
	t.Helper()
	cfg, err := config.Load(config.WithEnvFile(""), config.WithoutSystemEnv())
	require.NoError(t, err)
	cfg.Site.Tagline = "Code, create, explore."
	cfg.Site.FAQ = []config.FAQEntry{{Question: "What age?", Answer: "6 to 16."}}
	return cfg
}

// Site is a loaded site with its collaborators.
type Site struct {
	*site.Site
	Config     config.Config
	Store      *content.Store
	Library    *pages.Library
	Curriculum *curriculum.Catalog
	FS         fstest.MapFS
}

// SiteOption adjusts the site options before construction.
type SiteOption func(*site.Options)

// NewSite loads ContentFS into a store and builds a Site over it.
func NewSite(t testing.TB, opts ...SiteOption) *Site {
	t.Helper()
	cfg := Config(t)
	fsys := ContentFS()

	store := content.NewStore(content.FSFetcher{FS: fsys})
	_, err := store.Load(context.Background(), site.Sources(cfg.Content))
	require.NoError(t, err)

	library, err := pages.LoadLibrary(fsys, "pages")
	require.NoError(t, err)
	catalog, err := curriculum.Load(fsys, cfg.Content.CurriculumFile)
	require.NoError(t, err)
	renderer, err := views.New()
	require.NoError(t, err)

	options := site.Options{
		Config:     cfg,
		Store:      store,
		Library:    library,
		Curriculum: catalog,
		Views:      renderer,
	}
	for _, opt := range opts {
		opt(&options)
	}
	s, err := site.New(options)
	require.NoError(t, err)
	return &Site{Site: s, Config: options.Config, Store: store, Library: library, Curriculum: catalog, FS: fsys}
}
