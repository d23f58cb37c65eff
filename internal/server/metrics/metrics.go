// Package metrics declares the Prometheus collectors exported by the sync
// server and the HTTP handler that serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "farmsync"

var (
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_processed_total",
		Help:      "Records reconciled, by outcome.",
	}, []string{"outcome"})

	RecordDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "record_duration_seconds",
		Help:      "Time spent validating and reconciling one record.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	JobTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_transitions_total",
		Help:      "Sync job state transitions, by target state.",
	}, []string{"state"})

	JobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_in_flight",
		Help:      "Jobs accepted and not yet done.",
	})

	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_size_records",
		Help:      "Number of records per submitted batch.",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
	})

	IdentifierCollisions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identifier_collisions_total",
		Help:      "Generated farmer IDs rejected by the store as already taken.",
	})

	ReconcileRaces = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_races_total",
		Help:      "Creates that lost a race on a lookup key and were merged instead.",
	})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
