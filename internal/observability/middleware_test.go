package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	r := chi.NewRouter()
	r.Use(InjectLogger(logger), RequestLogger())
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })

	for _, path := range []string{"/ok", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, int64(200), entries[0].ContextMap()["status"])
	require.Equal(t, "/ok", entries[0].ContextMap()["route"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, int64(404), entries[1].ContextMap()["status"])
}

func TestRecovererReturns500(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := InjectLogger(zap.New(core))(Recoverer()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestFromContextDefaultsToNop(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
	require.NotNil(t, OrNop(nil))
}
