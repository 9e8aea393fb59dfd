package httpserver_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/kidsdev-Academy/kidsdev.github.io/internal/authstate"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/httpserver"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/identity"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/observability"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/session"
	"github.com/kidsdev-Academy/kidsdev.github.io/internal/testutil"
)

const validSession = "valid-session"

type fakeSessions struct {
	mu         sync.Mutex
	signedOut  []string
	exchangeOK string
}

func (f *fakeSessions) Resolve(r *http.Request) (authstate.State, error) {
	c, err := r.Cookie(identity.SessionCookieName)
	if err != nil {
		return authstate.Guest{}, nil
	}
	if c.Value != validSession {
		return authstate.Guest{}, errors.New("bad cookie")
	}
	return authstate.Authenticated{User: authstate.User{UID: "u1", Email: "ada@example.com"}}, nil
}

func (f *fakeSessions) Exchange(_ context.Context, idToken string) (*http.Cookie, error) {
	if idToken == "" {
		return nil, identity.ErrMissingIDToken
	}
	if idToken != f.exchangeOK {
		return nil, errors.New("rejected")
	}
	return &http.Cookie{Name: identity.SessionCookieName, Value: validSession, Path: "/"}, nil
}

func (f *fakeSessions) SignOut(_ context.Context, user authstate.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedOut = append(f.signedOut, user.UID)
	return nil
}

func (f *fakeSessions) ClearCookie() *http.Cookie {
	return &http.Cookie{Name: identity.SessionCookieName, Value: "", Path: "/", MaxAge: -1}
}

func newServer(t *testing.T, opts ...func(*httpserver.Config)) *httptest.Server {
	t.Helper()
	s := testutil.NewSite(t)
	data, err := fs.Sub(s.FS, "data")
	require.NoError(t, err)

	cfg := httpserver.Config{
		Site:    s.Site,
		DataFS:  data,
		Metrics: observability.NewMetrics(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	router, err := httpserver.NewRouter(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func withSessions(s httpserver.Sessions, rt *session.ReturnTo) func(*httpserver.Config) {
	return func(cfg *httpserver.Config) {
		cfg.Sessions = s
		cfg.ReturnTo = rt
	}
}

func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, target string, cookies ...*http.Cookie) (*http.Response, *goquery.Document) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return do(t, client, req)
}

func post(t *testing.T, client *http.Client, target string, form url.Values, cookies ...*http.Cookie) (*http.Response, *goquery.Document) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return do(t, client, req)
}

func do(t *testing.T, client *http.Client, req *http.Request) (*http.Response, *goquery.Document) {
	t.Helper()
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, testutil.Document(t, body)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestPagesRender(t *testing.T) {
	t.Parallel()
	ts := newServer(t)

	resp, doc := get(t, http.DefaultClient, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Equal(t, 3, doc.Find("#posts-container article").Length())
	require.Equal(t, "guest", doc.Find("#auth-container").AttrOr("data-auth-state", ""))

	resp, doc = get(t, http.DefaultClient, ts.URL+"/curriculum/level-1.html")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Little Explorers", doc.Find("#level-title").Text())

	resp, doc = get(t, http.DefaultClient, ts.URL+"/missing.html")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, 1, doc.Find("#not-found").Length())
}

func TestStaticAndDataFiles(t *testing.T) {
	t.Parallel()
	ts := newServer(t)

	for _, p := range []string{"/assets/site.css", "/assets/site.js", "/data/posts.json", "/healthz", "/metrics"} {
		resp, err := http.Get(ts.URL + p)
		require.NoError(t, err, p)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, p)
	}
}

func TestHealthReportsReadinessFailure(t *testing.T) {
	t.Parallel()
	ts := newServer(t, func(cfg *httpserver.Config) {
		cfg.Ready = func(context.Context) error { return errors.New("store empty") }
	})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSearchFragment(t *testing.T) {
	t.Parallel()
	ts := newServer(t)

	_, doc := get(t, http.DefaultClient, ts.URL+"/search?q=loops&from="+url.QueryEscape("/curriculum/level-1.html"))
	require.Equal(t, "results", doc.Find("#search-results").AttrOr("data-search-state", ""))
	require.Equal(t, "../posts/loops.html", doc.Find("#search-results a").First().AttrOr("href", ""))

	_, doc = get(t, http.DefaultClient, ts.URL+"/search?q=l")
	require.Equal(t, "not-searched", doc.Find("#search-results").AttrOr("data-search-state", ""))
	require.Zero(t, doc.Find("#search-results a").Length())

	_, doc = get(t, http.DefaultClient, ts.URL+"/search?q=zzzz")
	require.Equal(t, "no-results", doc.Find("#search-results").AttrOr("data-search-state", ""))
}

func TestSearchOverlayIsReset(t *testing.T) {
	t.Parallel()
	ts := newServer(t)

	_, doc := get(t, http.DefaultClient, ts.URL+"/search/overlay?from="+url.QueryEscape("/courses/python.html"))
	require.Equal(t, "", doc.Find("#search-input").AttrOr("value", "x"))
	require.Equal(t, "../search", doc.Find("#search-input").AttrOr("data-search-endpoint", ""))
	require.Equal(t, "not-searched", doc.Find("#search-results").AttrOr("data-search-state", ""))
	require.False(t, doc.Find("#search-overlay").HasClass("hidden"))

	_, doc = get(t, http.DefaultClient, ts.URL+"/search/overlay?q=loops")
	require.Equal(t, "loops", doc.Find("#search-input").AttrOr("value", ""))
	require.Equal(t, "results", doc.Find("#search-results").AttrOr("data-search-state", ""))

	_, doc = get(t, http.DefaultClient, ts.URL+"/search/overlay?q=loops&key=Escape")
	require.True(t, doc.Find("#search-overlay").HasClass("hidden"))
	require.Equal(t, "", doc.Find("#search-input").AttrOr("value", "x"))
	require.Zero(t, doc.Find("#search-results a").Length())
}

func TestDashboardRedirectsGuestsAndReturnsAfterSignIn(t *testing.T) {
	t.Parallel()
	sessions := &fakeSessions{exchangeOK: "good-token"}
	returnTo, err := session.NewReturnTo(session.Config{HashKey: session.GenerateKey(32)})
	require.NoError(t, err)
	ts := newServer(t, withSessions(sessions, returnTo))
	client := noRedirect()

	resp, _ := get(t, client, ts.URL+"/dashboard.html?tab=courses")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login.html", resp.Header.Get("Location"))
	remembered := resp.Cookies()
	require.NotEmpty(t, remembered)

	resp, _ = post(t, client, ts.URL+"/auth/session", url.Values{"idToken": {"good-token"}}, remembered...)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard.html?tab=courses", resp.Header.Get("Location"))
	sessionCookie := findCookie(resp, identity.SessionCookieName)
	require.NotNil(t, sessionCookie)
	require.Equal(t, validSession, sessionCookie.Value)

	resp, doc := get(t, client, ts.URL+"/dashboard.html", sessionCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "revealed", doc.Find("body").AttrOr("data-protected", ""))
	require.False(t, doc.Find("body").HasClass("opacity-0"))
	require.Equal(t, "Student", doc.Find("[data-auth-name]").Text())
	require.Contains(t, doc.Find("[data-dashboard-email]").Text(), "ada@example.com")
}

func TestSessionExchangeFailures(t *testing.T) {
	t.Parallel()
	client := noRedirect()

	ts := newServer(t)
	resp, _ := post(t, client, ts.URL+"/auth/session", url.Values{"idToken": {"x"}})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	ts = newServer(t, withSessions(&fakeSessions{exchangeOK: "good-token"}, nil))
	resp, _ = post(t, client, ts.URL+"/auth/session", url.Values{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = post(t, client, ts.URL+"/auth/session", url.Values{"idToken": {"forged"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = post(t, client, ts.URL+"/auth/session", url.Values{"idToken": {"good-token"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/dashboard.html", resp.Header.Get("Location"))
}

func TestSignOutRevokesAndClearsCookie(t *testing.T) {
	t.Parallel()
	sessions := &fakeSessions{}
	ts := newServer(t, withSessions(sessions, nil))

	resp, _ := post(t, noRedirect(), ts.URL+"/auth/signout", url.Values{},
		&http.Cookie{Name: identity.SessionCookieName, Value: validSession})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/index.html", resp.Header.Get("Location"))

	cleared := findCookie(resp, identity.SessionCookieName)
	require.NotNil(t, cleared)
	require.Empty(t, cleared.Value)
	require.Equal(t, []string{"u1"}, sessions.signedOut)
}

func TestInvalidSessionCookieFallsBackToGuest(t *testing.T) {
	t.Parallel()
	ts := newServer(t, withSessions(&fakeSessions{}, nil))

	resp, doc := get(t, noRedirect(), ts.URL+"/index.html",
		&http.Cookie{Name: identity.SessionCookieName, Value: "expired"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "guest", doc.Find("#auth-container").AttrOr("data-auth-state", ""))
}

func TestChallengeCheck(t *testing.T) {
	t.Parallel()
	ts := newServer(t)

	_, doc := post(t, http.DefaultClient, ts.URL+"/challenges/emoji-picker/check",
		url.Values{"code": {"import random\nprint(random.choice(emojis))"}})
	require.Equal(t, "true", doc.Find("#challenge-feedback").AttrOr("data-check-passed", ""))

	_, doc = post(t, http.DefaultClient, ts.URL+"/challenges/emoji-picker/check",
		url.Values{"code": {"print('hi')"}})
	require.Equal(t, "false", doc.Find("#challenge-feedback").AttrOr("data-check-passed", ""))

	resp, _ := post(t, http.DefaultClient, ts.URL+"/challenges/unknown/check", url.Values{"code": {"x"}})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChallengeComments(t *testing.T) {
	t.Parallel()
	ts := newServer(t)
	endpoint := ts.URL + "/challenges/emoji-picker/comments"

	_, doc := get(t, http.DefaultClient, endpoint)
	require.Equal(t, 1, doc.Find("#comments-list #empty-msg").Length())

	resp, doc := post(t, http.DefaultClient, endpoint, url.Values{"name": {"Sam"}, "message": {"Done!"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, doc.Find("#comments-list [data-comment-id]").Length())
	require.Equal(t, "S", doc.Find("[data-comment-avatar]").Text())

	resp, doc = post(t, http.DefaultClient, endpoint, url.Values{"name": {" "}, "message": {"hi"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, 1, doc.Find("#comments-list [data-comment-id]").Length())

	_, doc = get(t, http.DefaultClient, endpoint)
	require.Equal(t, "Done!", doc.Find("#comments-list p").Last().Text())
}

func TestContactForm(t *testing.T) {
	t.Parallel()
	ts := newServer(t)

	resp, doc := post(t, http.DefaultClient, ts.URL+"/contact", url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"message": {"Hello!"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, doc.Find("#contact-result[data-contact-success]").Length())

	resp, doc = post(t, http.DefaultClient, ts.URL+"/contact", url.Values{"name": {"Ada"}, "email": {"nope"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, 2, doc.Find("#contact-result [data-field]").Length())
}
