// Package metrics provides Prometheus metrics for ftpwatch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sdejongh/ftpwatch/pkg/models"
)

var (
	// Poll cycle metrics
	pollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpwatch_poll_cycles_total",
			Help: "Total number of poll cycles by outcome",
		},
		[]string{"target", "status"},
	)

	pollCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ftpwatch_poll_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds, including the remote listing",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	changesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpwatch_changes_detected_total",
			Help: "Total number of changed entries reported",
		},
		[]string{"target", "event"},
	)

	// Snapshot metrics
	trackedEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ftpwatch_tracked_entries",
			Help: "Number of paths held in the snapshot of a target",
		},
		[]string{"target"},
	)

	lastSuccessTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ftpwatch_last_success_timestamp_seconds",
			Help: "Unix time of the last successful poll cycle",
		},
		[]string{"target"},
	)

	// State backend metrics
	stateOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ftpwatch_state_operation_duration_seconds",
			Help:    "State backend operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	stateOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ftpwatch_state_operations_total",
			Help: "Total state backend operations",
		},
		[]string{"backend", "operation", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCycle records the outcome of one poll cycle.
func RecordCycle(report *models.PollReport) {
	pollCyclesTotal.WithLabelValues(report.Target, string(report.Status)).Inc()
	pollCycleDuration.WithLabelValues(report.Target).Observe(report.Duration.Seconds())

	if report.Status == models.StatusFailed {
		return
	}

	trackedEntries.WithLabelValues(report.Target).Set(float64(report.Tracked))
	lastSuccessTimestamp.WithLabelValues(report.Target).Set(float64(report.EndTime.Unix()))
	if len(report.Entries) > 0 {
		changesDetectedTotal.WithLabelValues(report.Target, string(report.Event)).Add(float64(len(report.Entries)))
	}
}

// RecordStateOperation records a state backend load, save or clear.
func RecordStateOperation(backend, operation string, duration time.Duration, success bool) {
	stateOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	stateOperationsTotal.WithLabelValues(backend, operation, status).Inc()
}
