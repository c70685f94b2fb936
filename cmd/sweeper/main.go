package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	solanasdk "github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/sweeper/internal/graceful"
	"github.com/vultisig/sweeper/internal/holdings"
	"github.com/vultisig/sweeper/internal/logging"
	"github.com/vultisig/sweeper/internal/metrics"
	"github.com/vultisig/sweeper/internal/notify"
	"github.com/vultisig/sweeper/internal/solana"
	"github.com/vultisig/sweeper/internal/sweep"
	"github.com/vultisig/sweeper/internal/util"
	"github.com/vultisig/sweeper/internal/wallet"
)

func main() {
	ctx := context.Background()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		logrus.Fatalf("failed to create logger: %v", err)
	}

	metricsServer := metrics.StartMetricsServer(
		cfg.Metrics,
		[]string{metrics.ServiceSweep, metrics.ServiceNotify},
		logger,
	)

	code := 0
	res, err := run(ctx, cfg, logger)
	switch {
	case err != nil:
		logger.Errorf("sweep failed: %v", err)
		code = 1
	default:
		printSummary(res)
		if res.Outcome == sweep.OutcomeError {
			code = 1
		}
	}

	err = metricsServer.Stop(ctx)
	if err != nil {
		logger.Errorf("failed to stop metrics server: %v", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, cfg config, logger *logrus.Logger) (sweep.Result, error) {
	recipient, err := solanasdk.PublicKeyFromBase58(cfg.Sweep.Recipient)
	if err != nil {
		return sweep.Result{}, fmt.Errorf("failed to parse recipient: %w", err)
	}

	keypair, err := wallet.LoadKeypair(cfg.Wallet.KeypairPath)
	if err != nil {
		return sweep.Result{}, fmt.Errorf("failed to load wallet: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	terminal := newPrompt(os.Stdin, os.Stdout)

	var signer solana.Wallet = keypair
	if cfg.Wallet.ConfirmEach {
		signer = wallet.NewApproval(keypair, terminal.approve)
	}

	notifier := notify.NewLogNotifier(logger, metrics.NewNotifyMetrics())
	owner := keypair.PublicKey().String()
	notify.Send(ctx, notifier, logger, notify.WalletConnected, map[string]any{
		"wallet":    owner,
		"recipient": recipient.String(),
	})

	network, err := solana.NewNetwork(ctx, cfg.Solana.RpcURL, signer, solana.Config{
		Recipient:      recipient,
		NativeReserve:  cfg.Sweep.NativeReserve,
		Memo:           cfg.Sweep.Memo,
		PollInterval:   cfg.Solana.PollInterval,
		ConfirmTimeout: cfg.Solana.ConfirmTimeout,
	}, logger)
	if err != nil {
		return sweep.Result{}, fmt.Errorf("failed to initialize Solana network: %w", err)
	}
	logger.Infof("initialized Solana network with RPC: %s", cfg.Solana.RpcURL)

	fetcher := holdings.NewClient(
		cfg.Holdings.URL,
		logger,
		holdings.WithNativeReserve(util.LamportsToSOL(cfg.Sweep.NativeReserve)),
	)

	orchestrator := sweep.New(
		fetcher,
		network,
		network,
		logger,
		sweep.WithNotifier(notifier),
		sweep.WithCooldown(cfg.Sweep.Cooldown),
		sweep.WithMetrics(metrics.NewSweepMetrics()),
		sweep.WithObserver(func(tr sweep.Transition) {
			_, _ = fmt.Fprintf(os.Stdout, "[%d] %-8s %s -> %s\n", tr.Index+1, tr.Item.Asset.Symbol, tr.From, tr.To)
		}),
	)

	var res sweep.Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		r, er := orchestrator.Start(gctx, owner)
		if er != nil {
			return fmt.Errorf("failed to start sweep: %w", er)
		}
		for d := range r.Decisions() {
			if terminal.decide(gctx, d) {
				d.Continue()
			} else {
				d.Stop()
			}
		}
		res = r.Wait()
		return nil
	})

	g.Go(func() error {
		return graceful.Watch(gctx, logger)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, graceful.ErrInterrupted) {
		return sweep.Result{}, err
	}
	return res, nil
}

func printSummary(res sweep.Result) {
	_, _ = fmt.Fprintf(os.Stdout, "\nsweep %s: %s\n", res.RunID, res.Outcome)
	for _, it := range res.Items {
		line := fmt.Sprintf("  %-8s %-10s %s", it.Asset.Symbol, it.Status, it.ValueAtStart.StringFixed(2))
		switch {
		case it.Signature != "":
			line += "  " + it.Signature
		case it.Err != nil:
			line += "  " + it.Err.Error()
		}
		_, _ = fmt.Fprintln(os.Stdout, line)
	}
	_, _ = fmt.Fprintf(os.Stdout, "moved ~$%s in %s\n", res.ValueMoved().StringFixed(2), res.Duration())
	if res.Err != nil {
		_, _ = fmt.Fprintf(os.Stdout, "reason: %v\n", res.Err)
	}
}
