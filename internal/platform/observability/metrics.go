package observability

import (
	"net/http"
	"time"

	"creativehub/contexts/creative-review/approval-workflow/domain/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "approval_workflow"

// Metrics owns a private registry so tests and processes never collide on
// the global default.
type Metrics struct {
	registry *prometheus.Registry

	transitionsTotal  *prometheus.CounterVec
	transitionLatency *prometheus.HistogramVec
	deliveriesTotal   *prometheus.CounterVec
	droppedTotal      prometheus.Counter
	httpRequestsTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		transitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Workflow transitions by operation and result.",
		}, []string{"operation", "result"}),
		transitionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time from command receipt to commit or refusal.",
			Buckets: []float64{
				0.001, 0.0025, 0.005,
				0.01, 0.025, 0.05,
				0.1, 0.25, 0.5,
				1, 2.5, 5,
			},
		}, []string{"operation", "result"}),
		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Notification deliveries by sink and result.",
		}, []string{"sink", "result"}),
		droppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_dropped_total",
			Help:      "Workflow events dropped before delivery.",
		}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) ObserveTransition(op entities.Operation, result string, elapsed time.Duration) {
	m.transitionsTotal.WithLabelValues(string(op), result).Inc()
	m.transitionLatency.WithLabelValues(string(op), result).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveDelivery(sink string, result string) {
	m.deliveriesTotal.WithLabelValues(sink, result).Inc()
}

func (m *Metrics) ObserveDropped() {
	m.droppedTotal.Inc()
}

func (m *Metrics) ObserveHTTP(route string, code string) {
	m.httpRequestsTotal.WithLabelValues(route, code).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
