package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkout"

// CheckoutMetrics tracks the payment pipeline.
type CheckoutMetrics struct {
	// Submissions counts submit attempts by outcome (accepted, validation, tokenization, ...).
	Submissions *prometheus.CounterVec
	// Polls counts status polls by observed gateway status ("transport_error" on failure).
	Polls *prometheus.CounterVec
	// Outcomes counts transactions reaching a terminal status.
	Outcomes *prometheus.CounterVec
	// SubmitDuration observes the end-to-end submit pipeline latency in seconds.
	SubmitDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the checkout collectors on a fresh registry.
func New() *CheckoutMetrics {
	reg := prometheus.NewRegistry()
	m := &CheckoutMetrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Payment submissions by outcome.",
		}, []string{"outcome"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_polls_total",
			Help:      "Transaction status polls by observed status.",
		}, []string{"status"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_outcomes_total",
			Help:      "Transactions reaching a terminal status.",
		}, []string{"status"}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_duration_seconds",
			Help:      "Latency of the tokenize/resolve/submit pipeline.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Submissions,
		m.Polls,
		m.Outcomes,
		m.SubmitDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *CheckoutMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
