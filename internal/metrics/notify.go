package metrics

import "github.com/prometheus/client_golang/prometheus"

var notifyEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "sweeper",
		Subsystem: "notify",
		Name:      "events_total",
		Help:      "Notification sink events by type and delivery status",
	},
	[]string{"event", "status"},
)

type NotifyMetrics struct{}

func NewNotifyMetrics() *NotifyMetrics {
	return &NotifyMetrics{}
}

func (nm *NotifyMetrics) RecordEvent(event string, delivered bool) {
	status := "delivered"
	if !delivered {
		status = "dropped"
	}
	notifyEventsTotal.WithLabelValues(event, status).Inc()
}
