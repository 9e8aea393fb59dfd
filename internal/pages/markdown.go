package pages

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for unknown page slugs.
var ErrNotFound = errors.New("pages: not found")

// Page is a rendered markdown page.
type Page struct {
	Slug        string
	Title       string
	Summary     string
	Description string
	Body        template.HTML
}

type frontMatter struct {
	Title       string `yaml:"title"`
	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Draft       bool   `yaml:"draft"`
}

// Library holds every markdown page of the site, keyed by slug ("about", "courses/web/intro").
type Library struct {
	pages map[string]Page
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

func newPagePolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "div", "code", "pre")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// LoadLibrary reads every *.md file under dir in fsys.
func LoadLibrary(fsys fs.FS, dir string) (*Library, error) {
	lib := &Library{pages: map[string]Page{}}
	policy := newPagePolicy()
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == dir {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || path.Ext(p) != ".md" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		slug := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(p, dir), "/"), ".md")
		page, draft, err := parsePage(slug, data, policy)
		if err != nil {
			return fmt.Errorf("pages: %s: %w", p, err)
		}
		if !draft {
			lib.pages[slug] = page
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lib, nil
}

func parsePage(slug string, data []byte, policy *bluemonday.Policy) (Page, bool, error) {
	fm, body := splitFrontMatter(string(data))
	front := frontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, false, fmt.Errorf("parse front matter: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return Page{}, false, fmt.Errorf("render markdown: %w", err)
	}
	page := Page{
		Slug:        slug,
		Title:       strings.TrimSpace(front.Title),
		Summary:     strings.TrimSpace(front.Summary),
		Description: strings.TrimSpace(front.Description),
		Body:        template.HTML(policy.SanitizeBytes(buf.Bytes())),
	}
	if page.Title == "" {
		page.Title = prettifySlug(path.Base(slug))
	}
	if page.Description == "" {
		page.Description = page.Summary
	}
	return page, front.Draft, nil
}

// Lookup returns the page for slug.
func (l *Library) Lookup(slug string) (Page, error) {
	if l == nil {
		return Page{}, ErrNotFound
	}
	p, ok := l.pages[strings.Trim(slug, "/")]
	if !ok {
		return Page{}, ErrNotFound
	}
	return p, nil
}

// Slugs returns every page slug, sorted.
func (l *Library) Slugs() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.pages))
	for slug := range l.pages {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func prettifySlug(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
