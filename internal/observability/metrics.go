package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	reportTransitionsTotal   *prometheus.CounterVec
	rejectedTransitionsTotal *prometheus.CounterVec
	transitionLatencySeconds *prometheus.HistogramVec
	feedbackVersionsTotal    prometheus.Counter
	validationReversalsTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors for the report
// lifecycle engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		reportTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_transitions_total",
			Help: "Total number of committed report lifecycle transitions.",
		}, []string{"action"})

		rejectedTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_transitions_rejected_total",
			Help: "Total number of lifecycle operations rejected before any write.",
		}, []string{"action", "reason"})

		transitionLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_transition_latency_seconds",
			Help:    "Latency distribution of committed lifecycle transitions.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"action"})

		feedbackVersionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "feedback_versions_total",
			Help: "Total number of feedback versions appended to the ledger.",
		})

		validationReversalsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "validation_reversals_total",
			Help: "Total number of recorded validation reversals.",
		})

		prometheus.MustRegister(
			reportTransitionsTotal,
			rejectedTransitionsTotal,
			transitionLatencySeconds,
			feedbackVersionsTotal,
			validationReversalsTotal,
		)
	})
}

// ReportTransitions exposes the committed-transition counter.
func ReportTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return reportTransitionsTotal
}

// RejectedTransitions exposes the rejected-operation counter.
func RejectedTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return rejectedTransitionsTotal
}

// TransitionLatency exposes the transition latency histogram.
func TransitionLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return transitionLatencySeconds
}

// FeedbackVersions exposes the version ledger counter.
func FeedbackVersions() prometheus.Counter {
	RegisterMetrics()
	return feedbackVersionsTotal
}

// ValidationReversals exposes the reversal counter.
func ValidationReversals() prometheus.Counter {
	RegisterMetrics()
	return validationReversalsTotal
}
