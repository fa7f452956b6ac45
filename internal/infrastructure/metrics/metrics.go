package metrics

import (
	"net/http"

	"shopify-preorder-layer/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the app's collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	preOrderSaves   *prometheus.CounterVec
	waitlistJoins   *prometheus.CounterVec
	waitlistNotify  prometheus.Counter
	planGateDenials *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

var _ ports.Recorder = (*Metrics)(nil)

// New registers every collector on a fresh registry. Process and Go runtime
// collectors are included when withRuntime is set.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		preOrderSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preorder_saves_total",
			Help: "Pre-order setting saves by result.",
		}, []string{"result"}),
		waitlistJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_joins_total",
			Help: "Storefront waitlist signups by result.",
		}, []string{"result"}),
		waitlistNotify: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "waitlist_notified_total",
			Help: "Waitlist entries marked notified.",
		}),
		planGateDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plan_gate_denials_total",
			Help: "Requests refused by the plan gate, by response variant.",
		}, []string{"variant"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Shopify webhook deliveries by topic and status.",
		}, []string{"topic", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.preOrderSaves,
		m.waitlistJoins,
		m.waitlistNotify,
		m.planGateDenials,
		m.webhookEvents,
		m.httpDuration,
	)
	if withRuntime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PreOrderSaved(result string) {
	m.preOrderSaves.WithLabelValues(result).Inc()
}

func (m *Metrics) WaitlistJoined(result string) {
	m.waitlistJoins.WithLabelValues(result).Inc()
}

func (m *Metrics) WaitlistNotified(count int) {
	if count > 0 {
		m.waitlistNotify.Add(float64(count))
	}
}

func (m *Metrics) PlanGateDenied(variant string) {
	m.planGateDenials.WithLabelValues(variant).Inc()
}

func (m *Metrics) WebhookProcessed(topic, status string) {
	m.webhookEvents.WithLabelValues(topic, status).Inc()
}

// ObserveRequest records the latency of one HTTP request
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.httpDuration.WithLabelValues(method, route, status).Observe(seconds)
}
