// Package metrics exports pipeline counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts pipeline runs by final status.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_pipeline_runs_total",
			Help: "Total number of pipeline runs by status",
		},
		[]string{"status"},
	)

	// RunDuration observes wall-clock duration of pipeline runs.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleet_pipeline_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 900},
		},
	)

	// UnitsProcessed counts per-unit outcomes within runs.
	UnitsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_pipeline_units_total",
			Help: "Total equipment units processed by outcome",
		},
		[]string{"outcome"},
	)

	// PredictionsByTier counts emitted predictions per priority tier.
	PredictionsByTier = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_predictions_total",
			Help: "Total predictions emitted by priority tier",
		},
		[]string{"tier"},
	)

	// NotificationsSent counts push notifications dispatched to technicians.
	NotificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleet_notifications_sent_total",
			Help: "Total push notifications sent",
		},
	)
)
