// Package identity connects the site to Firebase: session cookies, sign-out and profile lookups.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
)

const (
	// SessionCookieName is the cookie Firebase Hosting forwards to backends.
	SessionCookieName = "__session"

	defaultLifetime    = 5 * 24 * time.Hour
	defaultCallTimeout = 5 * time.Second
)

var (
	// ErrNoSession is returned when a request carries no session cookie.
	ErrNoSession = errors.New("identity: no session")
	// ErrMissingIDToken is returned when a sign-in exchange has no token.
	ErrMissingIDToken = errors.New("identity: id token is required")
)

// SessionVerifier is the subset of the Firebase Admin auth client used for sessions.
type SessionVerifier interface {
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*firebaseauth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// App bundles the Firebase clients the site uses.
type App struct {
	Auth *firebaseauth.Client
	app  *firebase.App
}

// NewApp initialises the Firebase Admin SDK.
func NewApp(ctx context.Context, projectID, credentialsFile string) (*App, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("firebase project id is required")
	}
	var clientOpts []option.ClientOption
	if credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}
	return &App{Auth: authClient, app: app}, nil
}

// Firestore opens a Firestore client for the app's project. The caller closes it.
func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := a.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firestore client: %w", err)
	}
	return client, nil
}

// Sessions resolves Firebase session cookies into auth states and handles sign-in and sign-out.
type Sessions struct {
	verifier SessionVerifier
	lifetime time.Duration
	secure   bool
	timeout  time.Duration
}

// SessionsOption customises Sessions.
type SessionsOption func(*Sessions)

// WithLifetime sets the lifetime of issued session cookies.
func WithLifetime(d time.Duration) SessionsOption {
	return func(s *Sessions) {
		if d > 0 {
			s.lifetime = d
		}
	}
}

// WithSecureCookies marks issued cookies Secure.
func WithSecureCookies(secure bool) SessionsOption {
	return func(s *Sessions) {
		s.secure = secure
	}
}

// NewSessions constructs Sessions backed by verifier.
func NewSessions(verifier SessionVerifier, opts ...SessionsOption) *Sessions {
	if verifier == nil {
		panic("firebase session verifier is required")
	}
	s := &Sessions{verifier: verifier, lifetime: defaultLifetime, timeout: defaultCallTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Resolve implements authstate.Resolver. A request without a session is a guest; an invalid
// session is a guest plus the verification error.
func (s *Sessions) Resolve(r *http.Request) (authstate.State, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return authstate.Guest{}, nil
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	token, err := s.verifier.VerifySessionCookie(ctx, cookie.Value)
	if err != nil {
		return authstate.Guest{}, fmt.Errorf("verify session cookie: %w", err)
	}
	return authstate.Authenticated{User: userFromToken(token)}, nil
}

// Exchange trades a client ID token for a session cookie.
func (s *Sessions) Exchange(ctx context.Context, idToken string) (*http.Cookie, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrMissingIDToken
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	value, err := s.verifier.SessionCookie(ctx, idToken, s.lifetime)
	if err != nil {
		return nil, fmt.Errorf("create session cookie: %w", err)
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.lifetime.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// SignOut revokes the user's refresh tokens so outstanding sessions stop verifying.
func (s *Sessions) SignOut(ctx context.Context, user authstate.User) error {
	if user.UID == "" {
		return ErrNoSession
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.verifier.RevokeRefreshTokens(ctx, user.UID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// ClearCookie returns a cookie that removes the session.
func (s *Sessions) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func userFromToken(token *firebaseauth.Token) authstate.User {
	if token == nil {
		return authstate.User{}
	}
	return authstate.User{
		UID:         token.UID,
		Email:       claimString(token.Claims["email"]),
		DisplayName: claimString(token.Claims["name"]),
	}
}

func claimString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case *string:
		if v == nil {
			return ""
		}
		return strings.TrimSpace(*v)
	default:
		return ""
	}
}
