package metrics

// Package metrics provides Prometheus metrics collection for the sweeper.
//
// This package includes:
// - Sweep run and per-item transfer metrics
// - Notification sink delivery metrics
// - Metrics HTTP server on configurable port
//
// Usage:
//   import "github.com/vultisig/sweeper/internal/metrics"
//
//   metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceSweep}, logger)
//   defer metricsServer.Stop(context.Background())
