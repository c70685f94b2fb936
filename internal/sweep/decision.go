package sweep

import (
	"github.com/google/uuid"

	"github.com/vultisig/sweeper/internal/types"
)

// Decision is raised after a failed item that is not the last one. The run
// stays suspended until Continue or Stop is called, or its context ends.
type Decision struct {
	RunID     uuid.UUID
	Index     int
	Item      TransferItem
	Err       error
	Remaining int

	reply chan bool
}

func newDecision(runID uuid.UUID, index int, item TransferItem, err error, remaining int) *Decision {
	return &Decision{
		RunID:     runID,
		Index:     index,
		Item:      item,
		Err:       err,
		Remaining: remaining,
		reply:     make(chan bool, 1),
	}
}

// UserRejected reports whether the failure was the operator declining to sign.
func (d *Decision) UserRejected() bool {
	return types.IsUserRejected(d.Err)
}

func (d *Decision) Continue() {
	d.answer(true)
}

func (d *Decision) Stop() {
	d.answer(false)
}

// only the first answer counts
func (d *Decision) answer(v bool) {
	select {
	case d.reply <- v:
	default:
	}
}

// Run is the caller's handle on an in-flight sweep.
type Run struct {
	ID     uuid.UUID
	Wallet string

	decisions chan *Decision
	done      chan struct{}
	result    Result
}

// Decisions yields pending continue/stop questions and is closed when the run
// ends, so callers can range over it.
func (r *Run) Decisions() <-chan *Decision {
	return r.decisions
}

func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run has finished. Decisions must be answered (or the
// run's context cancelled) for the run to make progress.
func (r *Run) Wait() Result {
	<-r.done
	return r.result
}
