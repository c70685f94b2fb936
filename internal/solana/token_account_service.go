package solana

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

type tokenAccountService struct {
	rpcClient rpcClient
}

func newTokenAccountService(rpcClient rpcClient) *tokenAccountService {
	return &tokenAccountService{
		rpcClient: rpcClient,
	}
}

// GetTokenProgram queries the mint account to determine which token program owns it and the token decimals.
// Returns TokenProgramID for legacy SPL tokens or Token2022ProgramID for Token-2022 tokens, plus decimals.
// Token-2022 may have additional extension data, but the base Mint layout is identical to SPL Token.
func (s *tokenAccountService) GetTokenProgram(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	accountInfo, err := s.rpcClient.GetAccountInfo(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("solana: failed to get mint account info: %w", err)
	}

	if accountInfo == nil || accountInfo.Value == nil {
		return solana.PublicKey{}, 0, fmt.Errorf("solana: mint account not found: %s", mint)
	}

	owner := accountInfo.Value.Owner
	if owner != solana.TokenProgramID && owner != solana.Token2022ProgramID {
		return solana.PublicKey{}, 0, fmt.Errorf("solana: mint account is not owned by a token program: %s", owner)
	}

	data := accountInfo.Value.Data.GetBinary()
	var mintData token.Mint
	if err := mintData.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("solana: failed to deserialize mint data: %w", err)
	}

	return owner, mintData.Decimals, nil
}

// FindAssociatedTokenAddress derives the ATA address for any token program (SPL or Token-2022).
// The tokenProgram parameter should be either solana.TokenProgramID or solana.Token2022ProgramID.
func FindAssociatedTokenAddress(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			wallet[:],
			tokenProgram[:],
			mint[:],
		},
		solana.SPLAssociatedTokenAccountProgramID,
	)
}

func (s *tokenAccountService) GetAssociatedTokenAddress(owner, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	a, _, err := FindAssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("solana: failed to get associated token address: %w", err)
	}
	return a, nil
}

func (s *tokenAccountService) CheckAccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	accountInfo, err := s.rpcClient.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("solana: failed to get account info: %w", err)
	}
	return accountInfo != nil && accountInfo.Value != nil, nil
}

// BuildCreateATAInstruction creates an instruction to create an ATA for any token program.
// The tokenProgram should be either solana.TokenProgramID or solana.Token2022ProgramID.
func (s *tokenAccountService) BuildCreateATAInstruction(
	payer, owner, mint, tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	ataAddress, _, err := FindAssociatedTokenAddress(owner, mint, tokenProgram)
	if err != nil {
		return nil, fmt.Errorf("solana: failed to derive ATA address: %w", err)
	}

	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		[]*solana.AccountMeta{
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: ataAddress, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: false, IsWritable: false},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: tokenProgram, IsSigner: false, IsWritable: false},
		},
		[]byte{0}, // instruction discriminator for "Create"
	), nil
}
