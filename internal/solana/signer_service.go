package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/vultisig/sweeper/internal/status"
	"github.com/vultisig/sweeper/internal/types"
)

const DefaultConfirmTimeout = 90 * time.Second

type signerService struct {
	rpcClient      rpcClient
	wallet         Wallet
	status         *status.Status
	confirmTimeout time.Duration
}

func newSignerService(
	rpcClient rpcClient,
	wallet Wallet,
	pollInterval time.Duration,
	confirmTimeout time.Duration,
) *signerService {
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	s := &signerService{
		rpcClient:      rpcClient,
		wallet:         wallet,
		confirmTimeout: confirmTimeout,
	}
	s.status = status.NewStatus(s, pollInterval)
	return s
}

func (s *signerService) SignAndBroadcast(ctx context.Context, req *types.TransferRequest) (string, error) {
	if req == nil || req.Transaction == nil {
		return "", types.NewSubmitError(types.SigningFailed, "", errors.New("empty transfer request"))
	}

	err := s.wallet.SignTransaction(ctx, req.Transaction)
	if err != nil {
		if errors.Is(err, types.ErrUserRejected) {
			return "", types.NewSubmitError(types.UserRejected, "", err)
		}
		return "", types.NewSubmitError(types.SigningFailed, "", fmt.Errorf("failed to sign transaction: %w", err))
	}

	sig, err := s.rpcClient.SendTransactionWithOpts(ctx, req.Transaction, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", types.NewSubmitError(types.NetworkRejected, "", fmt.Errorf("failed to broadcast transaction: %w", err))
	}

	return sig.String(), nil
}

func (s *signerService) WaitForConfirmation(ctx context.Context, signature string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	txStatus, err := s.status.WaitMined(waitCtx, signature)
	if err != nil {
		if waitCtx.Err() != nil {
			return types.NewSubmitError(types.Timeout, signature, fmt.Errorf("failed to wait for confirmation: %w", err))
		}
		return types.NewSubmitError(types.NetworkRejected, signature, fmt.Errorf("failed to wait for confirmation: %w", err))
	}

	if txStatus != status.TxOnChainSuccess {
		return types.NewSubmitError(types.NetworkRejected, signature, fmt.Errorf("transaction failed with status: %s", txStatus))
	}

	return nil
}

// GetTxStatus maps signature status to the poller's view: confirmed or
// finalized is success, any recorded error is failure, everything else pending.
func (s *signerService) GetTxStatus(ctx context.Context, txHash string) (status.TxOnChainStatus, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return "", fmt.Errorf("invalid signature %q: %w", txHash, err)
	}

	res, err := s.rpcClient.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return "", fmt.Errorf("failed to get signature status: %w", err)
	}

	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		return status.TxOnChainPending, nil
	}

	st := res.Value[0]
	if st.Err != nil {
		return status.TxOnChainFail, nil
	}

	switch st.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return status.TxOnChainSuccess, nil
	default:
		return status.TxOnChainPending, nil
	}
}
