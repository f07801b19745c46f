package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SearchMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchesTotal           *prometheus.CounterVec
	searchDuration          *prometheus.HistogramVec
	searchResults           *prometheus.HistogramVec
	fallbackTotal           *prometheus.CounterVec
	emptyResultsTotal       *prometheus.CounterVec
	stageDuration           *prometheus.HistogramVec
	enrichmentFailuresTotal *prometheus.CounterVec
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itc",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "itc",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itc",
			Subsystem: "search",
			Name:      "searches_total",
			Help:      "Total completed searches by retrieval method and query type.",
		},
		[]string{"service", "method", "query_type"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itc",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	searchResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itc",
			Subsystem: "search",
			Name:      "results",
			Help:      "Distribution of result counts per search before the display limit.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itc",
			Subsystem: "search",
			Name:      "fallback_total",
			Help:      "Total searches that fell past the vector tier, by tier reached.",
		},
		[]string{"service", "tier"},
	)
	emptyResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itc",
			Subsystem: "search",
			Name:      "empty_results_total",
			Help:      "Total searches where every retrieval tier came back empty.",
		},
		[]string{"service"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "itc",
			Subsystem: "search",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	enrichmentFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "itc",
			Subsystem: "enrichment",
			Name:      "failures_total",
			Help:      "Total failed enrichment tasks by kind.",
		},
		[]string{"service", "kind"},
	)
	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchesTotal,
		searchDuration,
		searchResults,
		fallbackTotal,
		emptyResultsTotal,
		stageDuration,
		enrichmentFailuresTotal,
	)

	return &SearchMetrics{
		registry:                registry,
		requestTotal:            requestTotal,
		requestDuration:         requestDuration,
		requestInFlight:         requestInFlight,
		searchesTotal:           searchesTotal,
		searchDuration:          searchDuration,
		searchResults:           searchResults,
		fallbackTotal:           fallbackTotal,
		emptyResultsTotal:       emptyResultsTotal,
		stageDuration:           stageDuration,
		enrichmentFailuresTotal: enrichmentFailuresTotal,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SearchMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/agenda/session/"):
		return "/agenda/session/{session_id}"
	default:
		return path
	}
}

func (m *SearchMetrics) RecordSearch(service, method, queryType string, totalFound int, duration time.Duration) {
	if method == "" {
		method = "unknown"
	}
	if queryType == "" {
		queryType = "unknown"
	}
	m.searchesTotal.WithLabelValues(service, method, queryType).Inc()
	m.searchDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.searchResults.WithLabelValues(service).Observe(float64(totalFound))
	if totalFound == 0 {
		m.emptyResultsTotal.WithLabelValues(service).Inc()
	}
}

func (m *SearchMetrics) RecordFallback(service, tier string) {
	if tier == "" {
		tier = "unknown"
	}
	m.fallbackTotal.WithLabelValues(service, tier).Inc()
}

func (m *SearchMetrics) RecordStage(service, stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(service, stage).Observe(duration.Seconds())
}

func (m *SearchMetrics) RecordEnrichmentFailure(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.enrichmentFailuresTotal.WithLabelValues(service, kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
