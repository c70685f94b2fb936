package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/sweeper/internal/metrics"
	"github.com/vultisig/sweeper/internal/notify"
	"github.com/vultisig/sweeper/internal/types"
)

const DefaultCooldown = time.Second

var (
	ErrBusy     = errors.New("a sweep is already running")
	ErrNoAssets = errors.New("no transferable assets found")
)

type BalanceFetcher interface {
	Fetch(ctx context.Context, wallet string) ([]types.AssetBalance, error)
}

type Builder interface {
	Build(ctx context.Context, asset types.AssetBalance) (*types.TransferRequest, error)
}

type Submitter interface {
	Submit(ctx context.Context, req *types.TransferRequest) (string, error)
	Confirm(ctx context.Context, signature string) error
}

type Option func(*Orchestrator)

func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithCooldown sets the fixed delay between consecutive items. Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.cooldown = d
	}
}

func WithMetrics(m *metrics.SweepMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithObserver registers a callback for item status changes. It runs on the
// sweep goroutine and must not block.
func WithObserver(fn func(Transition)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// Orchestrator moves every holding of a wallet, one asset at a time, strictly
// in descending value order. At most one run is active at a time.
type Orchestrator struct {
	fetcher   BalanceFetcher
	builder   Builder
	submitter Submitter
	notifier  notify.Notifier
	metrics   *metrics.SweepMetrics
	observer  func(Transition)
	cooldown  time.Duration
	logger    *logrus.Logger

	mu      sync.Mutex
	busy    bool
	runID   uuid.UUID
	wallet  string
	outcome Outcome
	current int
	items   []TransferItem
}

func New(
	fetcher BalanceFetcher,
	builder Builder,
	submitter Submitter,
	logger *logrus.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		fetcher:   fetcher,
		builder:   builder,
		submitter: submitter,
		notifier:  notify.Nop{},
		cooldown:  DefaultCooldown,
		logger:    logger.WithField("pkg", "sweep.Orchestrator").Logger,
		current:   -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Snapshot returns a copy of the current (or last) run's state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		RunID:   o.runID,
		Wallet:  o.wallet,
		Busy:    o.busy,
		Outcome: o.outcome,
		Current: o.current,
		Items:   copyItems(o.items),
	}
}

// Start begins sweeping wallet in the background. The run is bound to ctx:
// cancelling it stops the run at the next cooldown or decision point.
func (o *Orchestrator) Start(ctx context.Context, wallet string) (*Run, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.busy = true
	o.runID = uuid.New()
	o.wallet = wallet
	o.outcome = OutcomeIdle
	o.current = -1
	o.items = nil
	run := &Run{
		ID:        o.runID,
		Wallet:    wallet,
		decisions: make(chan *Decision),
		done:      make(chan struct{}),
	}
	o.mu.Unlock()

	go o.run(ctx, run)
	return run, nil
}

// Sweep runs to completion, resolving every decision with decide.
func (o *Orchestrator) Sweep(ctx context.Context, wallet string, decide func(*Decision) bool) (Result, error) {
	run, err := o.Start(ctx, wallet)
	if err != nil {
		return Result{}, err
	}
	for d := range run.Decisions() {
		if decide != nil && decide(d) {
			d.Continue()
		} else {
			d.Stop()
		}
	}
	return run.Wait(), nil
}

func (o *Orchestrator) run(ctx context.Context, run *Run) {
	started := time.Now()
	logger := o.logger.WithFields(logrus.Fields{
		"runID":  run.ID.String(),
		"wallet": run.Wallet,
	})

	outcome, runErr := o.execute(ctx, run, logger)

	o.mu.Lock()
	o.outcome = outcome
	o.busy = false
	run.result = Result{
		RunID:      run.ID,
		Wallet:     run.Wallet,
		Outcome:    outcome,
		Items:      copyItems(o.items),
		Err:        runErr,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	o.mu.Unlock()

	res := run.result
	if o.metrics != nil {
		o.metrics.RecordRun(outcome.String(), res.Duration())
	}

	entry := logger.WithFields(logrus.Fields{
		"outcome":   outcome.String(),
		"succeeded": res.Count(StatusSuccess),
		"failed":    res.Count(StatusFailed),
		"pending":   res.Count(StatusPending),
		"valueUSD":  res.ValueMoved().StringFixed(2),
		"duration":  res.Duration().String(),
	})
	if runErr != nil {
		entry = entry.WithError(runErr)
	}
	entry.Info("sweep finished")

	if outcome == OutcomeCancelled || outcome == OutcomeError {
		payload := map[string]any{
			"runId":   run.ID.String(),
			"wallet":  run.Wallet,
			"outcome": outcome.String(),
		}
		if runErr != nil {
			payload["reason"] = runErr.Error()
		}
		notify.Send(ctx, o.notifier, o.logger, notify.UserFeedback, payload)
	}

	close(run.decisions)
	close(run.done)
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, logger *logrus.Entry) (Outcome, error) {
	balances, err := o.fetcher.Fetch(ctx, run.Wallet)
	if err != nil {
		return OutcomeError, fmt.Errorf("failed to fetch balances: %w", err)
	}
	if len(balances) == 0 {
		return OutcomeError, ErrNoAssets
	}

	items := make([]TransferItem, len(balances))
	for i, b := range balances {
		items[i] = newItem(b)
	}
	o.mu.Lock()
	o.items = items
	o.mu.Unlock()

	logger.WithField("assets", len(items)).Info("sweep started")

	last := len(balances) - 1
	for i, asset := range balances {
		err := o.process(ctx, run, i, asset, logger)
		if i == last {
			break
		}

		if err != nil {
			proceed, cause := o.decide(ctx, run, i, err, last-i)
			if !proceed {
				return OutcomeCancelled, cause
			}
		}

		if !o.sleep(ctx) {
			return OutcomeCancelled, ctx.Err()
		}
	}

	return OutcomeCompleted, nil
}

// process takes one item from Pending to a terminal status and returns the
// failure, if any.
func (o *Orchestrator) process(
	ctx context.Context,
	run *Run,
	i int,
	asset types.AssetBalance,
	logger *logrus.Entry,
) error {
	start := time.Now()
	kind := asset.ID.Kind.String()
	logger = logger.WithFields(logrus.Fields{
		"index":  i,
		"asset":  asset.ID.String(),
		"symbol": asset.Symbol,
		"kind":   kind,
	})

	o.transition(run, i, StatusProcessing, nil)

	fail := func(stage string, err error) error {
		o.transition(run, i, StatusFailed, func(it *TransferItem) {
			it.Err = err
		})
		if o.metrics != nil {
			o.metrics.RecordItem(kind, false, time.Since(start))
			o.metrics.RecordFailure(stage, failureReason(err))
		}
		logger.WithError(err).WithField("stage", stage).Warn("transfer failed")
		return err
	}

	req, err := o.builder.Build(ctx, asset)
	if err != nil {
		return fail("build", err)
	}
	o.update(i, func(it *TransferItem) {
		it.SentAmount = req.Amount
		it.ProvisionedRecipient = req.ProvisionsRecipient
	})

	sig, err := o.submitter.Submit(ctx, req)
	if err != nil {
		return fail("submit", err)
	}
	logger.WithField("signature", sig).Info("transfer submitted")

	// a broadcast transaction cannot be recalled, so cancellation no longer
	// applies; Confirm is bounded by its own timeout.
	err = o.submitter.Confirm(context.WithoutCancel(ctx), sig)
	if err != nil {
		return fail("confirm", err)
	}

	o.transition(run, i, StatusSuccess, func(it *TransferItem) {
		it.Signature = sig
	})
	if o.metrics != nil {
		o.metrics.RecordItem(kind, true, time.Since(start))
	}
	logger.WithFields(logrus.Fields{
		"signature": sig,
		"amount":    req.Amount,
	}).Info("transfer confirmed")

	notify.Send(ctx, o.notifier, o.logger, notify.TransactionSent, map[string]any{
		"runId":     run.ID.String(),
		"wallet":    run.Wallet,
		"asset":     asset.ID.String(),
		"symbol":    asset.Symbol,
		"kind":      kind,
		"amount":    req.Amount,
		"valueUSD":  asset.EstimatedValue.StringFixed(2),
		"signature": sig,
	})
	return nil
}

// decide suspends the run until the caller answers. A cancelled context
// counts as Stop.
func (o *Orchestrator) decide(ctx context.Context, run *Run, i int, cause error, remaining int) (bool, error) {
	o.mu.Lock()
	item := o.items[i]
	o.mu.Unlock()

	d := newDecision(run.ID, i, item, cause, remaining)

	select {
	case run.decisions <- d:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case proceed := <-d.reply:
		if !proceed {
			return false, cause
		}
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (o *Orchestrator) sleep(ctx context.Context) bool {
	if o.cooldown <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(o.cooldown)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (o *Orchestrator) update(i int, fn func(*TransferItem)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.items[i])
}

func (o *Orchestrator) transition(run *Run, i int, to Status, fn func(*TransferItem)) {
	o.mu.Lock()
	it := &o.items[i]
	from := it.Status
	if !from.canTransition(to) {
		o.mu.Unlock()
		o.logger.WithFields(logrus.Fields{
			"index": i,
			"from":  from.String(),
			"to":    to.String(),
		}).Error("invalid item transition")
		return
	}
	it.Status = to
	if fn != nil {
		fn(it)
	}
	o.current = i
	item := *it
	o.mu.Unlock()

	if o.observer != nil {
		o.observer(Transition{RunID: run.ID, Index: i, From: from, To: to, Item: item})
	}
}

func failureReason(err error) string {
	var be *types.BuildError
	if errors.As(err, &be) {
		return string(be.Reason)
	}
	var se *types.SubmitError
	if errors.As(err, &se) {
		return string(se.Reason)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "unknown"
}
