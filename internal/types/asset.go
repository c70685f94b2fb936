package types

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

type AssetKind int

const (
	AssetNative AssetKind = iota
	AssetFungible
)

func (k AssetKind) String() string {
	switch k {
	case AssetNative:
		return "native"
	case AssetFungible:
		return "fungible"
	default:
		return fmt.Sprintf("AssetKind(%d)", int(k))
	}
}

// AssetID identifies a holding. Native SOL carries the wrapped-SOL mint so the
// identifier matches what holdings providers report for it.
type AssetID struct {
	Kind AssetKind
	Mint solana.PublicKey
}

func NativeAsset() AssetID {
	return AssetID{Kind: AssetNative, Mint: solana.SolMint}
}

func FungibleAsset(mint solana.PublicKey) AssetID {
	return AssetID{Kind: AssetFungible, Mint: mint}
}

func (a AssetID) IsNative() bool {
	return a.Kind == AssetNative
}

func (a AssetID) String() string {
	return a.Mint.String()
}

// AssetBalance is one entry of a balance snapshot.
type AssetBalance struct {
	ID       AssetID
	Symbol   string
	Amount   decimal.Decimal
	Decimals uint8
	// EstimatedValue is only used for ordering and run summaries.
	EstimatedValue decimal.Decimal
}

// TransferRequest is a built, unsigned transfer for a single asset.
type TransferRequest struct {
	Asset AssetBalance
	// Amount is what the transaction actually moves, in base units. For native
	// transfers it comes from a fresh balance read and can differ from the
	// snapshot amount.
	Amount              uint64
	ProvisionsRecipient bool
	Transaction         *solana.Transaction
}
