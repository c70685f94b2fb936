package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/sweeper/internal/types"
)

type Config struct {
	Recipient      solana.PublicKey
	NativeReserve  uint64
	Memo           string
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

// Network builds, signs, submits and confirms sweep transfers for one wallet.
type Network struct {
	owner     solana.PublicKey
	recipient solana.PublicKey
	builders  map[types.AssetKind]transferBuilder
	signer    *signerService
	logger    *logrus.Logger
}

func NewNetwork(
	ctx context.Context,
	rpcURL string,
	wallet Wallet,
	cfg Config,
	logger *logrus.Logger,
) (*Network, error) {
	rpcClient := rpc.New(rpcURL)

	_, err := rpcClient.GetVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Solana RPC: %w", err)
	}

	return newNetwork(rpcClient, wallet, cfg, logger)
}

func newNetwork(rpcClient rpcClient, wallet Wallet, cfg Config, logger *logrus.Logger) (*Network, error) {
	if wallet == nil {
		return nil, errors.New("wallet is required")
	}

	owner := wallet.PublicKey()
	if cfg.Recipient.IsZero() {
		return nil, errors.New("recipient is required")
	}
	if cfg.Recipient.Equals(owner) {
		return nil, fmt.Errorf("recipient %s is the swept wallet itself", cfg.Recipient)
	}
	if cfg.NativeReserve == 0 {
		cfg.NativeReserve = DefaultNativeReserve
	}
	if cfg.Memo == "" {
		cfg.Memo = DefaultMemo
	}

	send := newSendService(rpcClient, owner, cfg.Recipient, cfg.Memo)
	tokenAccount := newTokenAccountService(rpcClient)

	return &Network{
		owner:     owner,
		recipient: cfg.Recipient,
		builders: map[types.AssetKind]transferBuilder{
			types.AssetNative: &nativeTransfer{
				sendService:  send,
				tokenAccount: tokenAccount,
				reserve:      cfg.NativeReserve,
			},
			types.AssetFungible: &splTransfer{
				sendService:  send,
				tokenAccount: tokenAccount,
			},
		},
		signer: newSignerService(rpcClient, wallet, cfg.PollInterval, cfg.ConfirmTimeout),
		logger: logger,
	}, nil
}

func (n *Network) Owner() solana.PublicKey {
	return n.owner
}

func (n *Network) Recipient() solana.PublicKey {
	return n.recipient
}

// Build produces an unsigned transfer of asset to the configured recipient.
func (n *Network) Build(ctx context.Context, asset types.AssetBalance) (*types.TransferRequest, error) {
	builder, ok := n.builders[asset.ID.Kind]
	if !ok {
		return nil, types.NewBuildError(types.AccountResolutionFailed, asset.ID, fmt.Errorf("unsupported asset kind %s", asset.ID.Kind))
	}

	req, err := builder.Build(ctx, asset)
	if err != nil {
		return nil, err
	}

	n.logger.WithFields(logrus.Fields{
		"asset":        asset.ID.String(),
		"symbol":       asset.Symbol,
		"kind":         asset.ID.Kind.String(),
		"amount":       req.Amount,
		"provisioning": req.ProvisionsRecipient,
		"recipient":    n.recipient.String(),
	}).Debug("built transfer")

	return req, nil
}

func (n *Network) Submit(ctx context.Context, req *types.TransferRequest) (string, error) {
	return n.signer.SignAndBroadcast(ctx, req)
}

func (n *Network) Confirm(ctx context.Context, signature string) error {
	return n.signer.WaitForConfirmation(ctx, signature)
}
