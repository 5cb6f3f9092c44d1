package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/travel-expense/internal/domain/event"
)

// Metrics holds the engine's prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	transitions   *prometheus.CounterVec
	handlerRuns   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// New registers the engine collectors, plus Go and process collectors, on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Committed status changes of reports and travel requests
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "travel_expense_transitions_total",
				Help: "Total number of committed status transitions",
			},
			[]string{"entity", "from", "to"},
		),

		// Event handler runs by outcome
		handlerRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "travel_expense_event_handlers_total",
				Help: "Total number of event handler runs by type and result",
			},
			[]string{"type", "handler", "result"}, // result: ok, error
		),

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "travel_expense_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		httpDurations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "travel_expense_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveTransition counts a committed status change
func (m *Metrics) ObserveTransition(entityType, from, to string) {
	m.transitions.WithLabelValues(entityType, from, to).Inc()
}

// ObserveHandler counts one event handler run
func (m *Metrics) ObserveHandler(evt *event.Event, handlerName string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.handlerRuns.WithLabelValues(evt.Type.String(), handlerName, result).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
