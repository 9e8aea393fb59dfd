package authstate

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribeReplaysLatestState(t *testing.T) {
	b := NewBroadcaster()
	var early []string
	cancel := b.Subscribe(func(s State) { early = append(early, s.Name()) })
	require.Empty(t, early)

	b.Publish(Authenticated{User: User{UID: "u1"}})
	var late []State
	b.Subscribe(func(s State) { late = append(late, s) })

	require.Equal(t, []string{"authenticated"}, early)
	require.Len(t, late, 1)
	require.Equal(t, "u1", late[0].(Authenticated).User.UID)

	cancel()
	cancel()
	b.Publish(Guest{})
	require.Equal(t, []string{"authenticated"}, early)
	require.Len(t, late, 2)
	require.IsType(t, Guest{}, b.Current())
}

func TestFromContextDefaultsToGuest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.IsType(t, Guest{}, FromContext(req.Context()).Current())
}

func TestMiddlewarePublishesResolvedState(t *testing.T) {
	resolver := ResolverFunc(func(r *http.Request) (State, error) {
		if r.URL.Query().Get("fail") != "" {
			return nil, errors.New("boom")
		}
		return Authenticated{User: User{UID: "abc"}}, nil
	})

	var got State
	h := Middleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Subscribe(func(s State) { got = s })
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, Authenticated{User: User{UID: "abc"}}, got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?fail=1", nil))
	require.Equal(t, Guest{}, got)
}
