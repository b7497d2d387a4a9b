package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reportsTotal counts generated reports by final rating
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etfdash_reports_total",
		Help: "Reports generated by final rating",
	}, []string{"rating"})

	// fetchErrors counts failed history fetches by provider and role
	fetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etfdash_fetch_errors_total",
		Help: "Failed history fetches by provider and role",
	}, []string{"provider", "role"})

	// fetchDuration tracks history fetch latency
	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etfdash_fetch_duration_seconds",
		Help:    "History fetch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"provider", "role"})

	// evidenceMissing counts reports withheld for incomplete evidence, by field
	evidenceMissing = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etfdash_evidence_missing_total",
		Help: "Missing evidence fields across generated reports",
	}, []string{"field"})
)

// ObserveFetch records one history fetch. role is "subject" or "benchmark".
func ObserveFetch(provider, role string, took time.Duration, err error) {
	fetchDuration.WithLabelValues(provider, role).Observe(took.Seconds())
	if err != nil {
		fetchErrors.WithLabelValues(provider, role).Inc()
	}
}

// ObserveReport records a finished report
func ObserveReport(rating string, missing []string) {
	reportsTotal.WithLabelValues(rating).Inc()
	for _, field := range missing {
		evidenceMissing.WithLabelValues(field).Inc()
	}
}
