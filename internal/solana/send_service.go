package solana

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/sweeper/internal/types"
	"github.com/vultisig/sweeper/internal/util"
)

// MemoProgramID is the SPL Memo v2 program.
var MemoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

const (
	// DefaultNativeReserve keeps 0.001 SOL for rent and fees.
	DefaultNativeReserve uint64 = 1_000_000

	DefaultMemo = "vultisig-sweeper:v1"

	transferCheckedDiscriminator = 12
)

// transferBuilder is one asset-kind strategy for producing a transfer.
type transferBuilder interface {
	Build(ctx context.Context, asset types.AssetBalance) (*types.TransferRequest, error)
}

type sendService struct {
	rpcClient rpcClient
	owner     solana.PublicKey
	recipient solana.PublicKey
	memo      string
}

func newSendService(rpcClient rpcClient, owner, recipient solana.PublicKey, memo string) *sendService {
	return &sendService{
		rpcClient: rpcClient,
		owner:     owner,
		recipient: recipient,
		memo:      memo,
	}
}

// memoInstruction must stay ahead of the transfer instruction in every request.
func (s *sendService) memoInstruction() solana.Instruction {
	return solana.NewInstruction(MemoProgramID, nil, []byte(s.memo))
}

func (s *sendService) newTransaction(ctx context.Context, asset types.AssetID, insts []solana.Instruction) (*solana.Transaction, error) {
	block, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, types.NewBuildError(types.LedgerUnavailable, asset, fmt.Errorf("failed to get recent blockhash: %w", err))
	}

	tx, err := solana.NewTransaction(
		insts,
		block.Value.Blockhash,
		solana.TransactionPayer(s.owner),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

type nativeTransfer struct {
	*sendService
	tokenAccount *tokenAccountService
	reserve      uint64
}

// Build sends the live spendable balance minus the reserve. The snapshot amount
// is deliberately ignored: fees from earlier transfers in the same run come out
// of the same balance.
func (b *nativeTransfer) Build(ctx context.Context, asset types.AssetBalance) (*types.TransferRequest, error) {
	balance, err := b.rpcClient.GetBalance(ctx, b.owner, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, types.NewBuildError(types.LedgerUnavailable, asset.ID, fmt.Errorf("failed to get balance: %w", err))
	}

	if balance.Value <= b.reserve {
		return nil, types.NewBuildError(types.InsufficientFunds, asset.ID, fmt.Errorf(
			"balance %d lamports does not exceed reserve %d lamports",
			balance.Value,
			b.reserve,
		))
	}
	amount := balance.Value - b.reserve

	exists, err := b.tokenAccount.CheckAccountExists(ctx, b.recipient)
	if err != nil {
		return nil, types.NewBuildError(types.LedgerUnavailable, asset.ID, fmt.Errorf("failed to check destination account: %w", err))
	}

	if !exists {
		rentExempt, err := b.rpcClient.GetMinimumBalanceForRentExemption(ctx, 0, rpc.CommitmentConfirmed)
		if err != nil {
			return nil, types.NewBuildError(types.LedgerUnavailable, asset.ID, fmt.Errorf("failed to get rent exemption: %w", err))
		}

		if amount < rentExempt {
			return nil, types.NewBuildError(types.BelowRentExemption, asset.ID, fmt.Errorf(
				"transfer amount %d lamports is below rent-exempt minimum %d lamports for new account",
				amount,
				rentExempt,
			))
		}
	}

	tx, err := b.newTransaction(ctx, asset.ID, []solana.Instruction{
		b.memoInstruction(),
		system.NewTransferInstruction(amount, b.owner, b.recipient).Build(),
	})
	if err != nil {
		return nil, err
	}

	return &types.TransferRequest{
		Asset:       asset,
		Amount:      amount,
		Transaction: tx,
	}, nil
}

type splTransfer struct {
	*sendService
	tokenAccount *tokenAccountService
}

func (b *splTransfer) Build(ctx context.Context, asset types.AssetBalance) (*types.TransferRequest, error) {
	mint := asset.ID.Mint

	tokenProgram, decimals, err := b.tokenAccount.GetTokenProgram(ctx, mint)
	if err != nil {
		return nil, types.NewBuildError(types.AccountResolutionFailed, asset.ID, err)
	}

	if decimals != asset.Decimals {
		return nil, types.NewBuildError(types.AccountResolutionFailed, asset.ID, fmt.Errorf(
			"mint reports %d decimals, snapshot has %d",
			decimals,
			asset.Decimals,
		))
	}

	amount, err := util.ToBaseUnits(asset.Amount, decimals)
	if err != nil {
		return nil, types.NewBuildError(types.InvalidAmount, asset.ID, err)
	}
	if amount == 0 {
		return nil, types.NewBuildError(types.InvalidAmount, asset.ID, fmt.Errorf("amount %s is below one base unit", asset.Amount))
	}

	sourceATA, err := b.tokenAccount.GetAssociatedTokenAddress(b.owner, mint, tokenProgram)
	if err != nil {
		return nil, types.NewBuildError(types.AccountResolutionFailed, asset.ID, err)
	}

	destATA, err := b.tokenAccount.GetAssociatedTokenAddress(b.recipient, mint, tokenProgram)
	if err != nil {
		return nil, types.NewBuildError(types.AccountResolutionFailed, asset.ID, err)
	}

	var sourceExists, destExists bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var er error
		sourceExists, er = b.tokenAccount.CheckAccountExists(gctx, sourceATA)
		return er
	})
	g.Go(func() error {
		var er error
		destExists, er = b.tokenAccount.CheckAccountExists(gctx, destATA)
		return er
	})
	if err := g.Wait(); err != nil {
		return nil, types.NewBuildError(types.LedgerUnavailable, asset.ID, err)
	}
	if !sourceExists {
		return nil, types.NewBuildError(types.AccountResolutionFailed, asset.ID, fmt.Errorf("source token account %s not found", sourceATA))
	}

	insts := []solana.Instruction{b.memoInstruction()}

	if !destExists {
		createInst, err := b.tokenAccount.BuildCreateATAInstruction(b.owner, b.recipient, mint, tokenProgram)
		if err != nil {
			return nil, types.NewBuildError(types.AccountResolutionFailed, asset.ID, err)
		}
		insts = append(insts, createInst)
	}

	insts = append(insts, transferCheckedInstruction(tokenProgram, sourceATA, mint, destATA, b.owner, amount, decimals))

	tx, err := b.newTransaction(ctx, asset.ID, insts)
	if err != nil {
		return nil, err
	}

	return &types.TransferRequest{
		Asset:               asset,
		Amount:              amount,
		ProvisionsRecipient: !destExists,
		Transaction:         tx,
	}, nil
}

// transferCheckedInstruction works for both SPL Token and Token-2022 mints.
func transferCheckedInstruction(
	tokenProgram, source, mint, dest, owner solana.PublicKey,
	amount uint64,
	decimals uint8,
) solana.Instruction {
	// discriminator (1 byte) + amount (8 bytes little-endian) + decimals (1 byte)
	data := make([]byte, 10)
	data[0] = transferCheckedDiscriminator
	binary.LittleEndian.PutUint64(data[1:], amount)
	data[9] = decimals

	return solana.NewInstruction(
		tokenProgram,
		[]*solana.AccountMeta{
			{PublicKey: source, IsSigner: false, IsWritable: true},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: dest, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: false},
		},
		data,
	)
}
