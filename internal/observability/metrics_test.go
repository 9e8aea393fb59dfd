package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SourceFetched("posts", "ok")
	m.ItemsLoaded(map[string]int{"post": 2})
	m.SearchQueried("results")
	m.AuthTransition("guest")
	m.ContactSubmitted("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.SourceFetched("posts", "ok")
	m.ItemsLoaded(map[string]int{"course": 3})
	m.SearchQueried("no_results")

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	require.Contains(t, text, `kidsdev_content_source_fetch_total{result="ok",source="posts"} 1`)
	require.Contains(t, text, `kidsdev_content_items{type="course"} 3`)
	require.Contains(t, text, `kidsdev_search_queries_total{state="no_results"} 1`)
	require.Contains(t, text, `kidsdev_http_requests_total{method="GET",status="418"} 1`)
}
