package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects dispatcher metrics.
type Metrics interface {
	RecordDispatch(provider, status string, attempts int, duration time.Duration)
	RecordAttempt(provider, outcome string)
}

// PrometheusMetrics implements Metrics with Prometheus collectors.
type PrometheusMetrics struct {
	requests *prometheus.CounterVec
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the dispatcher collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_dispatch_requests_total",
			Help: "Dispatched LLM requests by provider and final status.",
		}, []string{"provider", "status"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_dispatch_attempts_total",
			Help: "Individual provider attempts by outcome.",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_dispatch_duration_seconds",
			Help:    "End-to-end dispatch latency including retry delays.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"provider", "status"}),
		retries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_dispatch_attempts_per_request",
			Help:    "Attempts used per dispatched request.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}, []string{"provider"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.attempts, m.duration, m.retries} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordDispatch records the outcome of one dispatch call
func (m *PrometheusMetrics) RecordDispatch(provider, status string, attempts int, duration time.Duration) {
	m.requests.WithLabelValues(provider, status).Inc()
	m.duration.WithLabelValues(provider, status).Observe(duration.Seconds())
	if attempts > 0 {
		m.retries.WithLabelValues(provider).Observe(float64(attempts))
	}
}

// RecordAttempt records one provider attempt
func (m *PrometheusMetrics) RecordAttempt(provider, outcome string) {
	m.attempts.WithLabelValues(provider, outcome).Inc()
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordDispatch(string, string, int, time.Duration) {}
func (NopMetrics) RecordAttempt(string, string)                      {}
