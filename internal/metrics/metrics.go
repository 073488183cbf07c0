// Package metrics holds the Prometheus collectors for the circle engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldcircles",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Total number of circle operations by outcome class.",
		},
		[]string{"operation", "outcome"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldcircles",
			Subsystem: "settlement",
			Name:      "effects_total",
			Help:      "Total number of settlement attempts.",
		},
		[]string{"kind", "outcome"},
	)

	settlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "yieldcircles",
			Subsystem: "settlement",
			Name:      "duration_seconds",
			Help:      "Duration of settlement calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"kind"},
	)

	settledValue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldcircles",
			Subsystem: "settlement",
			Name:      "value_total",
			Help:      "Total settled value in the smallest unit, by direction.",
		},
		[]string{"direction"},
	)

	verifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldcircles",
			Subsystem: "identity",
			Name:      "verifications_total",
			Help:      "Total number of identity verifications by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		operations,
		settlements,
		settlementDuration,
		settledValue,
		verifications,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOperation counts a finished engine operation.
// outcome is "ok" or an error class such as "not_permitted".
func RecordOperation(operation, outcome string) {
	operations.WithLabelValues(operation, outcome).Inc()
}

// RecordSettlement records one settlement attempt.
func RecordSettlement(kind, direction string, amount int64, ok bool, duration time.Duration) {
	outcome := "failed"
	if ok {
		outcome = "settled"
		settledValue.WithLabelValues(direction).Add(float64(amount))
	}
	settlements.WithLabelValues(kind, outcome).Inc()
	settlementDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordVerification counts an identity verification result.
func RecordVerification(verified bool) {
	result := "rejected"
	if verified {
		result = "verified"
	}
	verifications.WithLabelValues(result).Inc()
}
