package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

const (
	ServiceSweep  = "sweep"
	ServiceNotify = "notify"
)

// RegisterMetrics registers metrics for the specified services
func RegisterMetrics(services []string, logger *logrus.Logger) {
	// Always register Go and process metrics
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", logger)

	for _, service := range services {
		switch service {
		case ServiceSweep:
			registerSweepMetrics(logger)
		case ServiceNotify:
			registerNotifyMetrics(logger)
		default:
			logger.Warnf("Unknown service type for metrics registration: %s", service)
		}
	}
}

// registerIfNotExists registers a collector if it's not already registered
func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			logger.Debugf("%s already registered", name)
		} else {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}

func registerSweepMetrics(logger *logrus.Logger) {
	registerIfNotExists(sweepRunsTotal, "sweep_runs_total", logger)
	registerIfNotExists(sweepRunDuration, "sweep_run_duration", logger)
	registerIfNotExists(sweepItemsTotal, "sweep_items_total", logger)
	registerIfNotExists(sweepItemDuration, "sweep_item_duration", logger)
	registerIfNotExists(sweepFailuresTotal, "sweep_failures_total", logger)
	registerIfNotExists(sweepLastRunTimestamp, "sweep_last_run_timestamp", logger)
}

func registerNotifyMetrics(logger *logrus.Logger) {
	registerIfNotExists(notifyEventsTotal, "notify_events_total", logger)
}
