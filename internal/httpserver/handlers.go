package httpserver

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authwidget"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/challenges"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/comments"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/config"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/contact"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/content"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/identity"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/search"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/session"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/site"
)

type handlers struct {
	site     *site.Site
	sessions Sessions
	returnTo *session.ReturnTo
	contact  *contact.Service
	comments comments.Store
	paths    config.PathsConfig
	metrics  *observability.Metrics
	ready    func(ctx context.Context) error
}

func newHandlers(cfg Config, logger *zap.Logger) *handlers {
	svc := cfg.Contact
	if svc == nil {
		svc = contact.NewService(nil, logger, cfg.Metrics)
	}
	store := cfg.Comments
	if store == nil {
		store = comments.NewMemoryStore()
	}
	paths := cfg.Paths
	if paths.Landing == "" {
		paths.Landing = authwidget.DefaultPaths.Landing
	}
	if paths.Login == "" {
		paths.Login = authwidget.DefaultPaths.Login
	}
	if paths.Dashboard == "" {
		paths.Dashboard = authwidget.DefaultPaths.Dashboard
	}
	return &handlers{
		site:     cfg.Site,
		sessions: cfg.Sessions,
		returnTo: cfg.ReturnTo,
		contact:  svc,
		comments: store,
		paths:    paths,
		metrics:  cfg.Metrics,
		ready:    cfg.Ready,
	}
}

// recorder avoids handing Protect a typed nil.
func (h *handlers) recorder() authwidget.ReturnRecorder {
	if h.returnTo == nil {
		return nil
	}
	return h.returnTo
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			observability.FromContext(r.Context()).Warn("readiness check failed", zap.Error(err))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var buf bytes.Buffer
	status, err := h.site.Render(ctx, &buf, site.Request{
		Path:     r.URL.Path,
		Query:    r.URL.Query(),
		Auth:     authstate.FromContext(ctx),
		Revealed: authwidget.Revealed(ctx),
	})
	if err != nil {
		observability.FromContext(ctx).Error("render page failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	prefix := h.site.Prefix(r.URL.Query().Get("from"))
	res := h.site.Search(r.URL.Query().Get("q"))
	h.fragment(w, r, http.StatusOK, search.Results(res, prefix))
}

// searchOverlay serves the overlay opened, optionally seeded with ?q=. A ?key=Escape closes it
// again, which resets the term.
func (h *handlers) searchOverlay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sf := h.site.SearchSurface()
	sf.Open()
	if term := q.Get("q"); term != "" {
		sf.Input(term)
	}
	sf.Key(q.Get("key"))
	h.fragment(w, r, http.StatusOK, search.Overlay(sf, h.site.Prefix(q.Get("from"))))
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	if h.sessions == nil {
		http.Error(w, "sign-in is not configured", http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	cookie, err := h.sessions.Exchange(ctx, r.PostFormValue("idToken"))
	if err != nil {
		if errors.Is(err, identity.ErrMissingIDToken) {
			http.Error(w, "id token is required", http.StatusBadRequest)
			return
		}
		logger.Warn("session exchange failed", zap.Error(err))
		http.Error(w, "sign-in failed", http.StatusUnauthorized)
		return
	}
	http.SetCookie(w, cookie)

	target := sitePath(h.paths.Dashboard)
	if h.returnTo != nil {
		target = h.returnTo.Take(w, r, target)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *handlers) signOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var user authstate.User
	if s, ok := authstate.FromContext(ctx).Current().(authstate.Authenticated); ok {
		user = s.User
	}
	var signOuter authwidget.SignOuter
	if h.sessions != nil {
		signOuter = h.sessions
	}
	widget := authwidget.NewWidget(
		authwidget.WithSignOuter(signOuter),
		authwidget.WithLogger(observability.FromContext(ctx)),
		authwidget.WithMetrics(h.metrics),
		authwidget.WithPaths(authwidget.Paths{Landing: h.paths.Landing, Login: h.paths.Login, Dashboard: h.paths.Dashboard}),
	)
	landing := widget.SignOut(ctx, user)
	if h.sessions != nil {
		http.SetCookie(w, h.sessions.ClearCookie())
	}
	http.Redirect(w, r, sitePath(landing), http.StatusSeeOther)
}

func (h *handlers) submitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fragment(w, r, http.StatusBadRequest, contact.Errors(err))
		return
	}
	sub, err := h.contact.Submit(r.Context(), r.PostFormValue("name"), r.PostFormValue("email"), r.PostFormValue("message"))
	switch {
	case err == nil:
		h.fragment(w, r, http.StatusOK, contact.Success(sub))
	case errors.Is(err, contact.ErrInvalidSubmission):
		h.fragment(w, r, http.StatusUnprocessableEntity, contact.Errors(err))
	default:
		h.fragment(w, r, http.StatusBadGateway, contact.Errors(err))
	}
}

func (h *handlers) challenge(w http.ResponseWriter, r *http.Request) (content.Item, bool) {
	item, ok := h.site.Challenge(chi.URLParam(r, "slug"))
	if !ok {
		http.NotFound(w, r)
	}
	return item, ok
}

func (h *handlers) listComments(w http.ResponseWriter, r *http.Request) {
	item, ok := h.challenge(w, r)
	if !ok {
		return
	}
	thread := threadFor(item)
	list, err := h.comments.List(r.Context(), thread)
	if err != nil {
		observability.FromContext(r.Context()).Error("list comments failed", zap.String("thread", thread), zap.Error(err))
		http.Error(w, "comments unavailable", http.StatusBadGateway)
		return
	}
	h.fragment(w, r, http.StatusOK, comments.Thread(list))
}

func (h *handlers) addComment(w http.ResponseWriter, r *http.Request) {
	item, ok := h.challenge(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	thread := threadFor(item)
	status := http.StatusOK
	_, err := h.comments.Add(ctx, thread, comments.Comment{
		Name:    r.PostFormValue("name"),
		Message: r.PostFormValue("message"),
	})
	switch {
	case errors.Is(err, comments.ErrInvalidComment):
		status = http.StatusUnprocessableEntity
	case err != nil:
		observability.FromContext(ctx).Error("add comment failed", zap.String("thread", thread), zap.Error(err))
		http.Error(w, "comments unavailable", http.StatusBadGateway)
		return
	}
	list, err := h.comments.List(ctx, thread)
	if err != nil {
		observability.FromContext(ctx).Error("list comments failed", zap.String("thread", thread), zap.Error(err))
		http.Error(w, "comments unavailable", http.StatusBadGateway)
		return
	}
	h.fragment(w, r, status, comments.Thread(list))
}

func (h *handlers) checkChallenge(w http.ResponseWriter, r *http.Request) {
	item, ok := h.challenge(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	res := challenges.Check(checkMode(item), r.PostFormValue("code"), item.Keywords)
	h.fragment(w, r, http.StatusOK, challenges.Feedback(res, item.Keywords, ""))
}

func (h *handlers) fragment(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		observability.FromContext(r.Context()).Error("render fragment failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func threadFor(item content.Item) string {
	if item.ID != "" {
		return comments.ThreadID(item.ID)
	}
	return comments.DefaultThread
}

func checkMode(item content.Item) challenges.Mode {
	for _, v := range []string{item.Tech, item.Category} {
		if strings.Contains(strings.ToLower(v), "css") {
			return challenges.ModeCSS
		}
	}
	return challenges.ModePython
}
