package httpserver

import (
	"context"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authwidget"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/comments"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/contact"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/session"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/site"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/views"
)

// Sessions resolves, creates and ends Firebase-backed sessions.
type Sessions interface {
	authstate.Resolver
	Exchange(ctx context.Context, idToken string) (*http.Cookie, error)
	SignOut(ctx context.Context, user authstate.User) error
	ClearCookie() *http.Cookie
}

// Config holds runtime options for the site HTTP server.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	Site *site.Site
	// Sessions may be nil, in which case every visitor is a guest and sign-in is unavailable.
	Sessions Sessions
	ReturnTo *session.ReturnTo
	Contact  *contact.Service
	Comments comments.Store
	// DataFS serves the raw JSON collections under /data/.
	DataFS  fs.FS
	Paths   config.PathsConfig
	Metrics *observability.Metrics
	Logger  *zap.Logger
	Ready   func(ctx context.Context) error
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	router, err := NewRouter(cfg)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  durationOr(cfg.ReadTimeout, 10*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

// NewRouter builds the route tree.
func NewRouter(cfg Config) (http.Handler, error) {
	logger := observability.OrNop(cfg.Logger)
	h := newHandlers(cfg, logger)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.RequestLogger())
	router.Use(observability.Recoverer())
	router.Use(cfg.Metrics.Middleware)

	router.Get("/healthz", h.health)
	router.Handle("/metrics", cfg.Metrics.Handler())

	staticContent, err := views.Static()
	if err != nil {
		return nil, err
	}
	router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(staticContent))))
	if cfg.DataFS != nil {
		router.Handle("/data/*", http.StripPrefix("/data/", http.FileServer(http.FS(cfg.DataFS))))
	}

	var resolver authstate.Resolver
	if cfg.Sessions != nil {
		resolver = cfg.Sessions
	}

	router.Group(func(r chi.Router) {
		r.Use(authstate.Middleware(resolver))

		r.Get("/search", h.search)
		r.Get("/search/overlay", h.searchOverlay)

		r.Post("/auth/session", h.createSession)
		r.Post("/auth/signout", h.signOut)
		r.Post("/contact", h.submitContact)

		// Flat patterns so other pages under /challenges/ still fall through to the page route.
		r.Get("/challenges/{slug}/comments", h.listComments)
		r.Post("/challenges/{slug}/comments", h.addComment)
		r.Post("/challenges/{slug}/check", h.checkChallenge)

		r.With(authwidget.Protect(sitePath(h.paths.Login), h.recorder())).Get(sitePath(h.paths.Dashboard), h.page)
		r.Get("/*", h.page)
	})

	return router, nil
}

// sitePath turns a site-relative page such as "login.html" into an absolute request path.
func sitePath(p string) string {
	return "/" + strings.TrimLeft(strings.TrimSpace(p), "/")
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
