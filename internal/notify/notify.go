package notify

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/sweeper/internal/metrics"
)

type EventType string

const (
	WalletConnected EventType = "wallet_connected"
	TransactionSent EventType = "transaction_sent"
	UserFeedback    EventType = "user_feedback"
)

func (e EventType) Valid() bool {
	switch e {
	case WalletConnected, TransactionSent, UserFeedback:
		return true
	default:
		return false
	}
}

// Notifier is a fire-and-forget side channel. Callers must not let its errors
// change the outcome of whatever they were doing.
type Notifier interface {
	Notify(ctx context.Context, event EventType, payload map[string]any) error
}

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	logger  *logrus.Logger
	metrics *metrics.NotifyMetrics
}

func NewLogNotifier(logger *logrus.Logger, m *metrics.NotifyMetrics) *LogNotifier {
	return &LogNotifier{logger: logger, metrics: m}
}

func (n *LogNotifier) Notify(_ context.Context, event EventType, payload map[string]any) error {
	if !event.Valid() {
		n.record(event, false)
		return fmt.Errorf("unknown event type %q", event)
	}

	n.logger.WithFields(logrus.Fields(payload)).WithField("event", string(event)).Info("notification")
	n.record(event, true)
	return nil
}

func (n *LogNotifier) record(event EventType, delivered bool) {
	if n.metrics != nil {
		n.metrics.RecordEvent(string(event), delivered)
	}
}

// Send delivers an event and swallows any failure, including a panicking sink.
func Send(ctx context.Context, n Notifier, logger *logrus.Logger, event EventType, payload map[string]any) {
	if n == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("event", string(event)).Warnf("notify panicked: %v", r)
		}
	}()

	if err := n.Notify(ctx, event, payload); err != nil {
		logger.WithField("event", string(event)).Warnf("notify error: %v", err)
	}
}

// Nop discards all events.
type Nop struct{}

func (Nop) Notify(context.Context, EventType, map[string]any) error {
	return nil
}
