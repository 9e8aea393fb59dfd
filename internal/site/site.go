// Package site renders complete pages. The HTTP server and the static exporter share it so a
// served page and its exported file are byte-for-byte the same document.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authwidget"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/cards"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/curriculum"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/grid"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/nav"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/pages"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/reveal"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/search"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/views"
)

// Options wires a Site.
type Options struct {
	Config     config.Config
	Store      *content.Store
	Library    *pages.Library
	Curriculum *curriculum.Catalog
	Profiles   authwidget.ProfileSource
	Views      *views.Renderer
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// Site renders pages from the current content snapshot.
type Site struct {
	cfg        config.Config
	store      *content.Store
	library    *pages.Library
	curriculum *curriculum.Catalog
	profiles   authwidget.ProfileSource
	views      *views.Renderer
	logger     *zap.Logger
	metrics    *observability.Metrics
	resolver   paths.Resolver
	index      *search.Index
}

// New constructs a Site. Store and Views are required.
func New(opts Options) (*Site, error) {
	if opts.Store == nil {
		return nil, errors.New("site: content store is required")
	}
	if opts.Views == nil {
		return nil, errors.New("site: views renderer is required")
	}
	s := &Site{
		cfg:        opts.Config,
		store:      opts.Store,
		library:    opts.Library,
		curriculum: opts.Curriculum,
		profiles:   opts.Profiles,
		views:      opts.Views,
		logger:     observability.OrNop(opts.Logger).Named("site"),
		metrics:    opts.Metrics,
		resolver:   paths.New(opts.Config.Content.NestedMarkers...),
	}
	s.index = search.NewIndex(opts.Store, opts.Config.Content.SearchMinLength, search.WithMetrics(opts.Metrics))
	return s, nil
}

// Request is one page to render.
type Request struct {
	Path  string
	Query url.Values
	// Auth is the visitor's state stream. Nil renders the guest presentation.
	Auth authstate.Stream
	// Revealed is set once a guard has let the visitor see a protected page.
	Revealed bool
}

// Prefix returns the PathResolver prefix of pagePath.
func (s *Site) Prefix(pagePath string) string {
	return s.resolver.Prefix(pagePath)
}

// Search runs a query against the current content.
func (s *Site) Search(term string) search.Result {
	return s.index.Query(term)
}

// SearchSurface returns a closed search overlay backed by the site index.
func (s *Site) SearchSurface() *search.Surface {
	return search.NewSurface(s.index)
}

// Challenge finds a challenge by id or by the slug of its title.
func (s *Site) Challenge(slug string) (content.Item, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return content.Item{}, false
	}
	for _, item := range s.store.OfType(content.TypeChallenge) {
		if item.ID == slug || cards.Slug(item.Title) == slug {
			return item, true
		}
	}
	return content.Item{}, false
}

// Render writes the page for req and returns the HTTP status it should be served with.
func (s *Site) Render(ctx context.Context, w io.Writer, req Request) (int, error) {
	route := pages.Resolve(req.Path)
	prefix := s.resolver.Prefix(route.Path)

	observer := reveal.NewObserver(s.cfg.Reveal.Threshold)
	pc := &pageContext{
		site:     s,
		route:    route,
		prefix:   prefix,
		query:    req.Query,
		auth:     req.Auth,
		observer: observer,
		grids: grid.NewController(
			grid.WithDelayBase(s.cfg.Reveal.DelayBase),
			grid.WithObserver(observer),
		),
		status: http.StatusOK,
	}
	if pc.query == nil {
		pc.query = url.Values{}
	}

	body, err := pc.body()
	if err != nil {
		return http.StatusInternalServerError, err
	}
	bodyHTML, err := markup.String(ctx, body)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("site: render %s body: %w", route.Path, err)
	}

	widget := authwidget.NewWidget(
		authwidget.WithProfiles(s.profiles),
		authwidget.WithLogger(s.logger),
		authwidget.WithMetrics(s.metrics),
		authwidget.WithPrefix(prefix),
		authwidget.WithPaths(authwidget.Paths{
			Landing:   s.cfg.Paths.Landing,
			Login:     s.cfg.Paths.Login,
			Dashboard: s.cfg.Paths.Dashboard,
		}),
	)
	if req.Auth != nil {
		cancel := widget.Attach(ctx, req.Auth)
		defer cancel()
	}
	searchHTML, err := markup.String(ctx, search.Overlay(nil, prefix))
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("site: render search overlay: %w", err)
	}

	title := pc.title
	if title == "" {
		title = route.Title
	}
	page := views.Page{
		Title:           title,
		SiteName:        s.cfg.Site.Name,
		Description:     pc.description,
		Kind:            route.Kind.String(),
		Path:            route.Path,
		Prefix:          prefix,
		Nav:             nav.Build(route.Path, prefix),
		Auth:            template.HTML(widget.Markup()),
		Search:          template.HTML(searchHTML),
		Body:            template.HTML(bodyHTML),
		Protected:       route.Protected,
		Revealed:        req.Revealed,
		RevealThreshold: observer.Threshold(),
		RevealDelay:     s.cfg.Reveal.DelayBase,
		RevealIDs:       observer.Pending(),
		ContactEmail:    s.cfg.Contact.Email,
		Firebase: views.Firebase{
			APIKey:     s.cfg.Firebase.APIKey,
			AuthDomain: s.cfg.Firebase.AuthDomain,
			ProjectID:  s.cfg.Firebase.ProjectID,
		},
	}

	var buf bytes.Buffer
	if err := s.views.Render(&buf, page); err != nil {
		return http.StatusInternalServerError, err
	}
	if _, err := buf.WriteTo(w); err != nil {
		return pc.status, err
	}
	return pc.status, nil
}
