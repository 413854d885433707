package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for FetchTotal.
const (
	OutcomeOK            = "ok"
	OutcomeUnknownCity   = "unknown_city"
	OutcomeTransport     = "transport"
	OutcomeAPIResult     = "api_result"
	OutcomeMalformed     = "malformed"
	OutcomeAPIKeyMissing = "api_key_missing"
	OutcomeOther         = "other"
)

// CityUnknown labels fetches for names outside the city table.
const CityUnknown = "unknown"

// RouteOther labels requests that matched none of the instrumented routes.
const RouteOther = "other"

// Metrics holds the Prometheus collectors of the widget server.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal *prometheus.CounterVec
	FetchTotal        *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
}

// NewMetrics builds collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests received",
			},
			[]string{"method", "route", "status"},
		),
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "observation_fetch_total",
				Help:      "Observation fetches by city and outcome",
			},
			[]string{"city", "outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "observation_fetch_duration_seconds",
				Help:      "Latency of observation fetches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.FetchTotal,
		m.FetchDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveFetch records one fetch. A nil receiver is a no-op.
func (m *Metrics) ObserveFetch(city, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(city, outcome).Inc()
	m.FetchDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument counts requests by method, route and status. Paths not listed in
// routes are counted as RouteOther.
func (m *Metrics) Instrument(next http.Handler, routes ...string) http.Handler {
	known := make(map[string]struct{}, len(routes))
	for _, route := range routes {
		known[route] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if _, ok := known[route]; !ok {
			route = RouteOther
		}
		m.HTTPRequestsTotal.WithLabelValues(methodLabel(r.Method), route, strconv.Itoa(rec.status)).Inc()
	})
}

func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "OTHER"
	}
}
