package metrics

import (
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSweepMetrics(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	RegisterMetrics([]string{ServiceSweep, ServiceNotify}, logger)
	// second registration is tolerated
	RegisterMetrics([]string{ServiceSweep}, logger)

	sm := NewSweepMetrics()
	before := testutil.ToFloat64(sweepItemsTotal.WithLabelValues("native", "failed"))
	sm.RecordItem("native", false, time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(sweepItemsTotal.WithLabelValues("native", "failed")))

	beforeRuns := testutil.ToFloat64(sweepRunsTotal.WithLabelValues("completed"))
	sm.RecordRun("completed", time.Minute)
	assert.Equal(t, beforeRuns+1, testutil.ToFloat64(sweepRunsTotal.WithLabelValues("completed")))

	nm := NewNotifyMetrics()
	beforeDropped := testutil.ToFloat64(notifyEventsTotal.WithLabelValues("transaction_sent", "dropped"))
	nm.RecordEvent("transaction_sent", false)
	assert.Equal(t, beforeDropped+1, testutil.ToFloat64(notifyEventsTotal.WithLabelValues("transaction_sent", "dropped")))
}

func TestStartMetricsServer_Disabled(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := StartMetricsServer(Config{Enabled: false}, nil, logger)
	assert.Nil(t, s)
	assert.NoError(t, s.Stop(t.Context()))
}
