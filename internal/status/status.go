package status

import (
	"context"
	"time"
)

type TxOnChainStatus string

const (
	TxOnChainPending TxOnChainStatus = "PENDING"
	TxOnChainSuccess TxOnChainStatus = "SUCCESS"
	TxOnChainFail    TxOnChainStatus = "FAIL"
)

// Caller reports the current on-chain status of a transaction.
type Caller interface {
	GetTxStatus(ctx context.Context, txHash string) (TxOnChainStatus, error)
}

type Status struct {
	caller   Caller
	interval time.Duration
}

func NewStatus(caller Caller, interval time.Duration) *Status {
	if interval <= 0 {
		interval = time.Second
	}
	return &Status{
		caller:   caller,
		interval: interval,
	}
}

// WaitMined polls until the transaction leaves the pending state or ctx ends.
// Lookup errors are retried on the next tick; the last one is returned if ctx
// expires first.
func (s *Status) WaitMined(ctx context.Context, txHash string) (TxOnChainStatus, error) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return "", lastErr
			}
			return "", ctx.Err()
		case <-ticker.C:
			status, err := s.caller.GetTxStatus(ctx, txHash)
			if err != nil {
				lastErr = err
				continue
			}
			if status != TxOnChainPending {
				return status, nil
			}
		}
	}
}
