package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, now func() time.Time) *ReturnTo {
	t.Helper()
	store, err := NewReturnTo(Config{
		HashKey:  []byte("0123456789abcdef0123456789abcdef"),
		BlockKey: []byte("abcdef0123456789"),
		Now:      now,
	})
	require.NoError(t, err)
	return store
}

func TestRememberAndTake(t *testing.T) {
	store := newStore(t, nil)

	rec := httptest.NewRecorder()
	require.NoError(t, store.Remember(rec, httptest.NewRequest(http.MethodGet, "/dashboard.html?tab=progress", nil)))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/login.html", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	require.Equal(t, "/dashboard.html?tab=progress", store.Take(rec, req, "/index.html"))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestTakeFallbacks(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newStore(t, func() time.Time { return now })

	require.Equal(t, "/dashboard.html", store.Take(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "/dashboard.html"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: defaultCookieName, Value: "tampered"})
	require.Equal(t, "/dashboard.html", store.Take(httptest.NewRecorder(), req, "/dashboard.html"))

	rec := httptest.NewRecorder()
	require.NoError(t, store.Remember(rec, httptest.NewRequest(http.MethodGet, "/courses.html", nil)))
	now = now.Add(time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	require.Equal(t, "/dashboard.html", store.Take(httptest.NewRecorder(), req, "/dashboard.html"))
}

func TestConfigValidation(t *testing.T) {
	_, err := NewReturnTo(Config{})
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewReturnTo(Config{HashKey: []byte("k"), BlockKey: []byte("short")})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestIsLocalPath(t *testing.T) {
	require.True(t, IsLocalPath("/dashboard.html"))
	require.False(t, IsLocalPath("//evil.example.com"))
	require.False(t, IsLocalPath("https://evil.example.com/"))
	require.False(t, IsLocalPath("dashboard.html"))
}
