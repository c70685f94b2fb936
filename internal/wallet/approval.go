package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/vultisig/sweeper/internal/types"
)

type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// Approver decides whether a transaction may be signed.
type Approver func(ctx context.Context, tx *solana.Transaction) (bool, error)

// Approval asks an Approver before delegating to the wrapped signer and
// reports a refusal as types.ErrUserRejected.
type Approval struct {
	next    Signer
	approve Approver
}

func NewApproval(next Signer, approve Approver) *Approval {
	return &Approval{next: next, approve: approve}
}

func (a *Approval) PublicKey() solana.PublicKey {
	return a.next.PublicKey()
}

func (a *Approval) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	ok, err := a.approve(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to get approval: %w", err)
	}
	if !ok {
		return types.ErrUserRejected
	}
	return a.next.SignTransaction(ctx, tx)
}
