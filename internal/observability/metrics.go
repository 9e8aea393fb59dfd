package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "kidsdev"

// Metrics groups the Prometheus collectors used across the site. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	sourceFetches      *prometheus.CounterVec
	contentItems       *prometheus.GaugeVec
	searchQueries      *prometheus.CounterVec
	authTransitions    *prometheus.CounterVec
	contactSubmissions *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics registers the site collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the site collectors on reg and serves them from gatherer.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: gatherer,
		sourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "content_source_fetch_total",
			Help:      "Content source fetches by source and result.",
		}, []string{"source", "result"}),
		contentItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "content_items",
			Help:      "Items held by the content store, by type.",
		}, []string{"type"}),
		searchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "search_queries_total",
			Help:      "Search queries by resulting state.",
		}, []string{"state"}),
		authTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auth_transitions_total",
			Help:      "Auth widget transitions by target state.",
		}, []string{"state"}),
		contactSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "contact_submissions_total",
			Help:      "Contact form submissions by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(
		m.sourceFetches,
		m.contentItems,
		m.searchQueries,
		m.authTransitions,
		m.contactSubmissions,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// SourceFetched counts one fetch attempt for a content source.
func (m *Metrics) SourceFetched(source, result string) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, result).Inc()
}

// ItemsLoaded replaces the per-type item gauge with counts.
func (m *Metrics) ItemsLoaded(counts map[string]int) {
	if m == nil {
		return
	}
	m.contentItems.Reset()
	for typ, n := range counts {
		m.contentItems.WithLabelValues(typ).Set(float64(n))
	}
}

// SearchQueried counts a search query by its resulting state.
func (m *Metrics) SearchQueried(state string) {
	if m == nil {
		return
	}
	m.searchQueries.WithLabelValues(state).Inc()
}

// AuthTransition counts an auth widget transition.
func (m *Metrics) AuthTransition(state string) {
	if m == nil {
		return
	}
	m.authTransitions.WithLabelValues(state).Inc()
}

// ContactSubmitted counts a contact form submission outcome.
func (m *Metrics) ContactSubmitted(result string) {
	if m == nil {
		return
	}
	m.contactSubmissions.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
