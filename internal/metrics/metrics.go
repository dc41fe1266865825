// Package metrics exports Prometheus instrumentation for sampling runs and
// the publisher. Collectors register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sampleDuration measures complete sampling operations.
	// Labels: strategy (sample, maximize), kind (sync, async, marginals), status (success, error)
	sampleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "patterngrid",
		Subsystem: "sampler",
		Name:      "duration_seconds",
		Help:      "Sampling operation latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"strategy", "kind", "status"})

	// ungratifiable counts variables whose every value violated a constraint.
	// Labels: graph
	ungratifiable = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patterngrid",
		Subsystem: "sampler",
		Name:      "ungratifiable_variables_total",
		Help:      "Variables sampled from a uniform fallback because no value was admissible",
	}, []string{"graph"})

	// concurrentViolations counts rejected overlapping sampling operations.
	// Labels: graph
	concurrentViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patterngrid",
		Subsystem: "sampler",
		Name:      "concurrent_violations_total",
		Help:      "Sampling requests rejected because another operation was pending",
	}, []string{"graph"})

	// publishes counts pattern publications.
	// Labels: status (success, error)
	publishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "patterngrid",
		Subsystem: "publish",
		Name:      "patterns_total",
		Help:      "Pattern publications by status",
	}, []string{"status"})
)

// RecordSample records the duration and outcome of one sampling operation.
func RecordSample(strategy, kind, status string, seconds float64) {
	sampleDuration.WithLabelValues(strategy, kind, status).Observe(seconds)
}

// RecordUngratifiable adds n ungratifiable variables for a graph.
func RecordUngratifiable(graph string, n int) {
	if n <= 0 {
		return
	}
	ungratifiable.WithLabelValues(graph).Add(float64(n))
}

// RecordConcurrentViolation records a rejected overlapping sampling request.
func RecordConcurrentViolation(graph string) {
	concurrentViolations.WithLabelValues(graph).Inc()
}

// RecordPublish records a publication attempt.
func RecordPublish(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	publishes.WithLabelValues(status).Inc()
}
