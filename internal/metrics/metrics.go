package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
	ExternalRequests *prometheus.CounterVec
	ExternalLatency  *prometheus.HistogramVec
	BookingsCreated  *prometheus.CounterVec
	ReferralChecks   *prometheus.CounterVec
	ServiceChecks    *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace)
		prometheus.MustRegister(metricsInstance.Collectors()...)
	})
	return metricsInstance
}

// New builds unregistered collectors. Tests use it directly to avoid the global registry.
func New(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ExternalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Total calls to third-party APIs by upstream and outcome.",
		}, []string{"upstream", "status"}),
		ExternalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "Latency distribution of third-party API calls including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"upstream"}),
		BookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_submitted_total",
			Help:      "Booking submissions by outcome.",
		}, []string{"outcome"}),
		ReferralChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "referral_checks_total",
			Help:      "Referral code verifications by result.",
		}, []string{"result"}),
		ServiceChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "serviceability_checks_total",
			Help:      "Pincode serviceability lookups by result.",
		}, []string{"result"}),
	}
}

// Collectors lists every collector for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPLatency,
		m.ExternalRequests,
		m.ExternalLatency,
		m.BookingsCreated,
		m.ReferralChecks,
		m.ServiceChecks,
	}
}
