package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sweeper",
			Subsystem: "run",
			Name:      "total",
			Help:      "Total number of sweep runs by outcome",
		},
		[]string{"outcome"}, // completed, cancelled, error
	)

	sweepRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sweeper",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of a sweep run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	sweepLastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sweeper",
			Subsystem: "run",
			Name:      "last_finished_timestamp",
			Help:      "Timestamp of the last finished sweep run",
		},
	)

	sweepItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sweeper",
			Subsystem: "item",
			Name:      "transfers_total",
			Help:      "Total number of asset transfers by terminal status",
		},
		[]string{"kind", "status"}, // native/fungible, success/failed
	)

	sweepItemDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sweeper",
			Subsystem: "item",
			Name:      "duration_seconds",
			Help:      "Time from build to confirmation for one asset",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	sweepFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sweeper",
			Subsystem: "item",
			Name:      "failures_total",
			Help:      "Asset transfer failures by stage and reason",
		},
		[]string{"stage", "reason"}, // build/submit, insufficient_funds/user_rejected/...
	)
)

// SweepMetrics provides methods to update sweep-related metrics
type SweepMetrics struct{}

func NewSweepMetrics() *SweepMetrics {
	return &SweepMetrics{}
}

func (sm *SweepMetrics) RecordItem(kind string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failed"
	}
	sweepItemsTotal.WithLabelValues(kind, status).Inc()
	sweepItemDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (sm *SweepMetrics) RecordFailure(stage, reason string) {
	sweepFailuresTotal.WithLabelValues(stage, reason).Inc()
}

func (sm *SweepMetrics) RecordRun(outcome string, duration time.Duration) {
	sweepRunsTotal.WithLabelValues(outcome).Inc()
	sweepRunDuration.Observe(duration.Seconds())
	sweepLastRunTimestamp.Set(float64(time.Now().Unix()))
}
