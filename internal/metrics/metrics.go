// Package metrics wires the conversation pipeline's Prometheus registry:
// turn latency/outcome, menu cache hit rate, LLM call volume/latency, TTS
// call volume/latency, and the HTTP boundary.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns one private registry; nothing in this package touches the
// global default registerer, so constructing more than one in tests never
// panics on a duplicate-registration collision.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	turnsTotal   *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec

	menuCacheTotal *prometheus.CounterVec

	llmCallsTotal   *prometheus.CounterVec
	llmCallDuration *prometheus.HistogramVec

	ttsCallsTotal   *prometheus.CounterVec
	ttsCallDuration *prometheus.HistogramVec
}

// New builds the registry and every collector it exposes.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests"},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "Duration of HTTP requests in seconds", Buckets: prometheus.DefBuckets},
		[]string{"method", "path"},
	)

	turnsTotal := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{Name: "turn_total", Help: "Total number of turns handled by the orchestrator"},
		[]string{"intent", "outcome"},
	)
	turnDuration := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{Name: "turn_duration_seconds", Help: "Duration of a full HandleTurn call in seconds", Buckets: prometheus.DefBuckets},
		[]string{"intent"},
	)

	menuCacheTotal := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{Name: "menu_cache_total", Help: "Total number of menu read model lookups by cache result"},
		[]string{"collection", "result"},
	)

	llmCallsTotal := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{Name: "llm_calls_total", Help: "Total number of LLMClient.Chat calls"},
		[]string{"component", "status"},
	)
	llmCallDuration := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{Name: "llm_call_duration_seconds", Help: "Duration of LLMClient.Chat calls in seconds", Buckets: prometheus.DefBuckets},
		[]string{"component"},
	)

	ttsCallsTotal := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{Name: "tts_calls_total", Help: "Total number of Synthesizer.Synthesize calls"},
		[]string{"status"},
	)
	ttsCallDuration := promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{Name: "tts_call_duration_seconds", Help: "Duration of Synthesizer.Synthesize calls in seconds", Buckets: prometheus.DefBuckets},
		[]string{},
	)

	return &Metrics{
		registry:            registry,
		httpRequestsTotal:   httpRequestsTotal,
		httpRequestDuration: httpRequestDuration,
		turnsTotal:          turnsTotal,
		turnDuration:        turnDuration,
		menuCacheTotal:      menuCacheTotal,
		llmCallsTotal:       llmCallsTotal,
		llmCallDuration:     llmCallDuration,
		ttsCallsTotal:       ttsCallsTotal,
		ttsCallDuration:     ttsCallDuration,
	}
}

// Handler exposes the registry for a /metrics scrape.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTurn records one HandleTurn call's outcome and latency.
func (m *Metrics) ObserveTurn(intent, outcome string, duration time.Duration) {
	m.turnsTotal.WithLabelValues(intent, outcome).Inc()
	m.turnDuration.WithLabelValues(intent).Observe(duration.Seconds())
}

// ObserveMenuCacheAccess records whether a Menu Read Model collection read
// was served from Redis or fell through to Postgres.
func (m *Metrics) ObserveMenuCacheAccess(collection string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.menuCacheTotal.WithLabelValues(collection, result).Inc()
}

// ObserveLLMCall records one LLMClient.Chat call's outcome and latency,
// labeled by the calling component (intent_classifier, add_item_parser, ...).
func (m *Metrics) ObserveLLMCall(component string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.llmCallsTotal.WithLabelValues(component, status).Inc()
	m.llmCallDuration.WithLabelValues(component).Observe(duration.Seconds())
}

// ObserveTTSCall records one Synthesizer.Synthesize call's outcome and latency.
func (m *Metrics) ObserveTTSCall(err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ttsCallsTotal.WithLabelValues(status).Inc()
	m.ttsCallDuration.WithLabelValues().Observe(duration.Seconds())
}

// ObserveHTTPRequest records one inbound HTTP request's status and latency.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, http.StatusText(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Middleware wraps an http.Handler to record ObserveHTTPRequest for every
// request it serves.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		m.ObserveHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
