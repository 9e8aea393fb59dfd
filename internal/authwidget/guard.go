package authwidget

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
)

// Decision is what a guard concluded for the current visitor.
type Decision int

const (
	// DecisionPending means no state has been observed yet; content stays hidden.
	DecisionPending Decision = iota
	// DecisionRedirect sends a guest to the login page.
	DecisionRedirect
	// DecisionReveal shows the protected content.
	DecisionReveal
)

// Guard protects a page. It is a separate subscriber to the same stream as the Widget.
type Guard struct {
	onRedirect func()
	onReveal   func(authstate.User)

	mu       sync.Mutex
	decision Decision
	user     authstate.User
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// OnRedirect runs when a guest is sent away, e.g. to record the return URL.
func OnRedirect(fn func()) GuardOption {
	return func(g *Guard) { g.onRedirect = fn }
}

// OnReveal runs when protected content is revealed.
func OnReveal(fn func(authstate.User)) GuardOption {
	return func(g *Guard) { g.onReveal = fn }
}

// NewGuard returns a pending guard.
func NewGuard(opts ...GuardOption) *Guard {
	g := &Guard{}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Attach subscribes the guard to stream.
func (g *Guard) Attach(stream authstate.Stream) (cancel func()) {
	return stream.Subscribe(g.Apply)
}

// Apply reacts to s.
func (g *Guard) Apply(s authstate.State) {
	g.mu.Lock()
	var fire func()
	switch s := s.(type) {
	case authstate.Authenticated:
		if g.decision != DecisionReveal {
			g.decision = DecisionReveal
			g.user = s.User
			if g.onReveal != nil {
				user := s.User
				fire = func() { g.onReveal(user) }
			}
		}
	default:
		if g.decision != DecisionRedirect {
			g.decision = DecisionRedirect
			g.user = authstate.User{}
			fire = g.onRedirect
		}
	}
	g.mu.Unlock()
	if fire != nil {
		fire()
	}
}

// Decision returns the current decision.
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// User returns the user the content was revealed to.
func (g *Guard) User() authstate.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user
}

// ReturnRecorder stores the page a guest asked for.
type ReturnRecorder interface {
	Remember(w http.ResponseWriter, r *http.Request) error
}

type revealedKey struct{}

// Revealed reports whether a guard revealed the current request's content.
func Revealed(ctx context.Context) bool {
	v, _ := ctx.Value(revealedKey{}).(bool)
	return v
}

// Protect guards next. Guests are redirected to loginPath after their requested URL is recorded;
// signed-in users get the page with its content revealed.
func Protect(loginPath string, recorder ReturnRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard := NewGuard(OnRedirect(func() {
				if recorder == nil {
					return
				}
				if err := recorder.Remember(w, r); err != nil {
					observability.FromContext(r.Context()).Warn("record return path failed", zap.Error(err))
				}
			}))
			cancel := guard.Attach(authstate.FromContext(r.Context()))
			defer cancel()

			switch guard.Decision() {
			case DecisionReveal:
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), revealedKey{}, true)))
			default:
				http.Redirect(w, r, loginPath, http.StatusFound)
			}
		})
	}
}
