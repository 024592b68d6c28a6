// Package metrics exposes Prometheus instrumentation for validation runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunDuration observes wall-clock time per optimization run, labeled by
	// which side produced it ("reference" or "candidate") and the algorithm.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "xval",
		Name:      "run_duration_seconds",
		Help:      "Duration of a single optimization run.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"side", "algorithm"})

	// Verdicts counts comparison outcomes by verdict.
	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "xval",
		Name:      "verdicts_total",
		Help:      "Comparison verdicts rendered, by severity.",
	}, []string{"verdict"})

	// BridgeFailures counts candidate invocations that crashed, timed out or
	// exited non-zero.
	BridgeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "xval",
		Name:      "bridge_failures_total",
		Help:      "Candidate process failures absorbed by the bridge.",
	})
)
