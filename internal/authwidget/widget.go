// Package authwidget renders the header sign-in control and guards member-only pages.
package authwidget

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/identity"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/markup"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/paths"
)

const (
	// DefaultDisplayName is shown when no profile name can be found.
	DefaultDisplayName = "Student"

	avatarBase    = "https://ui-avatars.com/api/"
	signOutAction = "/auth/signout"
)

// ProfileSource looks up a user's display name.
type ProfileSource interface {
	DisplayName(ctx context.Context, uid string) (string, error)
}

// SignOuter ends a user's session with the auth provider.
type SignOuter interface {
	SignOut(ctx context.Context, user authstate.User) error
}

// Paths are the site pages the widget links to.
type Paths struct {
	Landing   string
	Login     string
	Dashboard string
}

// DefaultPaths matches the site's page names.
var DefaultPaths = Paths{Landing: "index.html", Login: "login.html", Dashboard: "dashboard.html"}

// Option configures a Widget.
type Option func(*Widget)

// WithProfiles sets the display name source.
func WithProfiles(p ProfileSource) Option {
	return func(w *Widget) { w.profiles = p }
}

// WithSignOuter sets the sign-out collaborator.
func WithSignOuter(s SignOuter) Option {
	return func(w *Widget) { w.signOuter = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Widget) { w.logger = observability.OrNop(l) }
}

// WithMetrics records state transitions.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Widget) { w.metrics = m }
}

// WithPaths overrides the linked pages.
func WithPaths(p Paths) Option {
	return func(w *Widget) {
		if p.Landing != "" {
			w.paths.Landing = p.Landing
		}
		if p.Login != "" {
			w.paths.Login = p.Login
		}
		if p.Dashboard != "" {
			w.paths.Dashboard = p.Dashboard
		}
	}
}

// WithPrefix sets the PathResolver prefix of the hosting page.
func WithPrefix(prefix string) Option {
	return func(w *Widget) { w.prefix = prefix }
}

// Widget is the header control. It starts in the guest presentation and only changes in
// response to state notifications.
type Widget struct {
	profiles  ProfileSource
	signOuter SignOuter
	logger    *zap.Logger
	metrics   *observability.Metrics
	paths     Paths
	prefix    string

	mu          sync.Mutex
	guestMarkup string
	markup      string
	state       string
	renders     int
}

// NewWidget builds a widget in the guest presentation.
func NewWidget(opts ...Option) *Widget {
	w := &Widget{logger: zap.NewNop(), paths: DefaultPaths}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	w.guestMarkup = guestMarkup(w.prefix, w.paths)
	w.markup = w.guestMarkup
	w.state = authstate.Guest{}.Name()
	return w
}

// Attach subscribes the widget to stream.
func (w *Widget) Attach(ctx context.Context, stream authstate.Stream) (cancel func()) {
	return stream.Subscribe(func(s authstate.State) {
		w.Apply(ctx, s)
	})
}

// Apply moves the widget to s.
func (w *Widget) Apply(ctx context.Context, s authstate.State) {
	switch s := s.(type) {
	case authstate.Authenticated:
		name := w.displayName(ctx, s.User)
		html := profileMarkup(w.prefix, w.paths, name, AvatarURL(name))
		w.mu.Lock()
		w.markup = html
		w.state = s.Name()
		w.renders++
		w.mu.Unlock()
		w.metrics.AuthTransition(s.Name())
	default:
		w.mu.Lock()
		if w.state == (authstate.Guest{}).Name() {
			w.mu.Unlock()
			return
		}
		w.markup = w.guestMarkup
		w.state = authstate.Guest{}.Name()
		w.renders++
		w.mu.Unlock()
		w.metrics.AuthTransition(authstate.Guest{}.Name())
	}
}

// Markup returns the current header markup.
func (w *Widget) Markup() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.markup
}

// State returns the name of the current presentation.
func (w *Widget) State() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Renders counts how often the markup was replaced.
func (w *Widget) Renders() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.renders
}

// Component renders the current markup.
func (w *Widget) Component() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, out io.Writer) error {
		_, err := io.WriteString(out, w.Markup())
		return err
	})
}

// SignOut ends user's session and returns the page to navigate to. Failures are logged only.
func (w *Widget) SignOut(ctx context.Context, user authstate.User) string {
	if w.signOuter != nil {
		if err := w.signOuter.SignOut(ctx, user); err != nil {
			w.logger.Warn("sign out failed", zap.String("uid", user.UID), zap.Error(err))
		}
	}
	w.Apply(ctx, authstate.Guest{})
	return w.paths.Landing
}

func (w *Widget) displayName(ctx context.Context, user authstate.User) string {
	if w.profiles == nil {
		return DefaultDisplayName
	}
	name, err := w.profiles.DisplayName(ctx, user.UID)
	switch {
	case err == nil && strings.TrimSpace(name) != "":
		return strings.TrimSpace(name)
	case err == nil, errors.Is(err, identity.ErrProfileNotFound), errors.Is(err, identity.ErrNoDisplayName):
		w.logger.Debug("profile has no display name", zap.String("uid", user.UID))
	default:
		w.logger.Warn("profile lookup failed", zap.String("uid", user.UID), zap.Error(err))
	}
	return DefaultDisplayName
}

// AvatarURL derives the avatar image for a display name.
func AvatarURL(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "FFE66D")
	q.Set("color", "1A1A2E")
	q.Set("bold", "true")
	return avatarBase + "?" + q.Encode()
}

func guestMarkup(prefix string, p Paths) string {
	var buf bytes.Buffer
	hw := markup.NewWriter(&buf)
	hw.Raw(`<div id="auth-container" class="flex items-center gap-3" data-auth-state="guest">`)
	hw.Raw(`<a href="`).URL(paths.Apply(prefix, p.Login)).Raw(`" class="text-sm font-semibold text-gray-300 hover:text-white transition" data-auth-signin>Sign In</a>`)
	hw.Raw(`<a href="`).URL(paths.Apply(prefix, p.Login+"?mode=signup")).Raw(`" class="btn btn-primary text-sm" data-auth-signup>Sign Up</a>`)
	hw.Raw(`</div>`)
	return buf.String()
}

func profileMarkup(prefix string, p Paths, name, avatar string) string {
	var buf bytes.Buffer
	hw := markup.NewWriter(&buf)
	hw.Raw(`<div id="auth-container" class="flex items-center gap-3" data-auth-state="authenticated">`)
	hw.Raw(`<a href="`).URL(paths.Apply(prefix, p.Dashboard)).Raw(`" class="flex items-center gap-2 group" data-auth-profile>`)
	hw.Raw(`<img src="`).URL(avatar).Raw(`" alt="`).Text(name).Raw(`" class="w-8 h-8 rounded-full border-2 border-[#FFE66D]" data-auth-avatar>`)
	hw.Raw(`<span class="text-sm font-semibold text-white group-hover:text-[#FFE66D] transition" data-auth-name>`).Text(name).Raw(`</span></a>`)
	hw.Raw(`<form method="post" action="`).URL(signOutAction).Raw(`" data-auth-signout>`)
	hw.Raw(`<button type="submit" class="text-xs text-gray-400 hover:text-white transition"><i data-lucide="log-out" class="w-4 h-4"></i><span class="sr-only">Sign Out</span></button>`)
	hw.Raw(`</form></div>`)
	return buf.String()
}
