package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	paymentTransitions *prometheus.CounterVec
	gatewayCalls       *prometheus.HistogramVec
	webhookRejections  *prometheus.CounterVec
	operatorAlerts     *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		paymentTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_transitions_total",
				Help: "Payment status transitions applied, by confirmation source",
			},
			[]string{"source", "status"},
		),
		gatewayCalls: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_call_duration_seconds",
				Help:    "Payment gateway call latency",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
			},
			[]string{"operation", "outcome"},
		),
		webhookRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_rejections_total",
				Help: "Webhook deliveries rejected, by reason",
			},
			[]string{"reason"},
		),
		operatorAlerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "operator_alerts_total",
				Help: "Conditions that need manual intervention",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.paymentTransitions,
		m.gatewayCalls,
		m.webhookRejections,
		m.operatorAlerts,
	)
	return m
}

// NewRegistry returns a registry with process and runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, endpoint, status string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, endpoint, status).Inc()
	m.httpDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) PaymentTransition(source, status string) {
	m.paymentTransitions.WithLabelValues(source, status).Inc()
}

func (m *Metrics) GatewayCall(operation, outcome string, elapsed time.Duration) {
	m.gatewayCalls.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) WebhookRejected(reason string) {
	m.webhookRejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) OperatorAlert(kind string) {
	m.operatorAlerts.WithLabelValues(kind).Inc()
}
