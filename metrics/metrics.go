package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var once sync.Once

var (
	// ReportsTotal counts registered reports by outcome (created, duplicate, error).
	ReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "complaints",
		Name:      "reports_total",
		Help:      "Total number of inbound reports processed, labeled by outcome.",
	}, []string{"outcome"})

	// TicketsIssuedTotal counts tickets created on complaint confirmation.
	TicketsIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "complaints",
		Name:      "tickets_issued_total",
		Help:      "Total number of tickets issued.",
	})

	// TicketsPending is the number of activated complaints awaiting a ticket record.
	TicketsPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "civic",
		Subsystem: "complaints",
		Name:      "tickets_pending",
		Help:      "Activated complaints whose ticket record is awaiting reconciliation.",
	})

	// ClassifierFailuresTotal counts degraded classifier calls by capability.
	ClassifierFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "civic",
		Subsystem: "complaints",
		Name:      "classifier_failures_total",
		Help:      "Total classifier calls that failed and degraded to a default.",
	}, []string{"capability"})

	// DedupDurationSeconds is end-to-end time for a duplicate scan.
	DedupDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "civic",
		Subsystem: "complaints",
		Name:      "dedup_duration_seconds",
		Help:      "End-to-end time for one duplicate scan across the candidate pool.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	})
)

// Register registers all collectors exactly once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ReportsTotal,
			TicketsIssuedTotal,
			TicketsPending,
			ClassifierFailuresTotal,
			DedupDurationSeconds,
		)
	})
}
