package sweep

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vultisig/sweeper/internal/types"
)

type Status int

const (
	StatusPending Status = iota
	StatusProcessing
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// canTransition encodes Pending -> Processing -> {Success, Failed}.
func (s Status) canTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to.Terminal()
	default:
		return false
	}
}

type Outcome int

const (
	OutcomeIdle Outcome = iota
	OutcomeCompleted
	OutcomeCancelled
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// TransferItem tracks one asset of a run.
type TransferItem struct {
	ID              string
	Asset           types.AssetBalance
	Status          Status
	ValueAtStart    decimal.Decimal
	RequestedAmount decimal.Decimal
	// SentAmount is the base-unit quantity placed in the built transaction.
	SentAmount           uint64
	ProvisionedRecipient bool
	// Signature is set only once Status is StatusSuccess.
	Signature string
	Err       error
}

func newItem(b types.AssetBalance) TransferItem {
	return TransferItem{
		ID:              b.ID.String(),
		Asset:           b,
		Status:          StatusPending,
		ValueAtStart:    b.EstimatedValue,
		RequestedAmount: b.Amount,
	}
}

// Transition is reported to observers on every item status change.
type Transition struct {
	RunID uuid.UUID
	Index int
	From  Status
	To    Status
	Item  TransferItem
}

type Snapshot struct {
	RunID   uuid.UUID
	Wallet  string
	Busy    bool
	Outcome Outcome
	// Current is the index of the item being worked on, -1 before the first.
	Current int
	Items   []TransferItem
}

type Result struct {
	RunID      uuid.UUID
	Wallet     string
	Outcome    Outcome
	Items      []TransferItem
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Result) Count(status Status) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == status {
			n++
		}
	}
	return n
}

// ValueMoved sums the snapshot value of every successful item.
func (r Result) ValueMoved() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		if it.Status == StatusSuccess {
			total = total.Add(it.ValueAtStart)
		}
	}
	return total
}

func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func copyItems(items []TransferItem) []TransferItem {
	if items == nil {
		return nil
	}
	out := make([]TransferItem, len(items))
	copy(out, items)
	return out
}
