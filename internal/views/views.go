// Package views holds the page layout and the static assets shipped with every page.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/nav"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Static returns the asset files served under /assets/.
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}

// Firebase is the browser SDK configuration embedded in each page.
type Firebase struct {
	APIKey     string
	AuthDomain string
	ProjectID  string
}

// Enabled reports whether the browser SDK should be loaded.
func (f Firebase) Enabled() bool {
	return f.APIKey != "" && f.ProjectID != ""
}

// Page is the data of the base layout.
type Page struct {
	Title       string
	SiteName    string
	Description string
	Kind        string
	Path        string
	Prefix      string
	Nav         []nav.RenderedItem

	Auth   template.HTML
	Search template.HTML
	Body   template.HTML

	// Protected pages keep their body hidden until a guard reveals it.
	Protected bool
	Revealed  bool

	RevealThreshold float64
	RevealDelay     time.Duration
	RevealIDs       []string

	ContactEmail string
	Firebase     Firebase
	Now          time.Time
}

// Hidden reports whether the body starts hidden.
func (p Page) Hidden() bool {
	return p.Protected && !p.Revealed
}

// Renderer executes the layout.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	funcMap := template.FuncMap{
		"link": paths.Apply,
		"asset": func(prefix, name string) string {
			return paths.Apply(prefix, "assets/"+name)
		},
		"millis": func(d time.Duration) int64 {
			return d.Milliseconds()
		},
		"join": strings.Join,
	}
	tmpl, err := template.New("_root").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("views: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the full page.
func (r *Renderer) Render(w io.Writer, p Page) error {
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	if err := r.tmpl.ExecuteTemplate(w, "base", p); err != nil {
		return fmt.Errorf("views: render %s: %w", p.Path, err)
	}
	return nil
}
