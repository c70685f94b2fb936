package util

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// NativeDecimals is the precision of SOL (lamports per SOL = 10^9).
const NativeDecimals = 9

// IsNativeToken checks if the mint string represents native SOL
func IsNativeToken(mint string) bool {
	return mint == "" || strings.EqualFold(mint, "native") || mint == solana.SolMint.String()
}

// ToBaseUnits converts a human-readable amount to integer base units,
// truncating any fractional remainder below the asset precision.
// e.g. 1.2345678 USDC (6 decimals) -> 1234567
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("negative amount: %s", amount)
	}

	raw := amount.Shift(int32(decimals)).Truncate(0).BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows uint64 at %d decimals", amount, decimals)
	}
	return raw.Uint64(), nil
}

// FromBaseUnits converts base units to a human-readable amount
// e.g. 10000000 with 6 decimals -> 10
func FromBaseUnits(raw decimal.Decimal, decimals uint8) decimal.Decimal {
	return raw.Shift(-int32(decimals))
}

// LamportsToSOL renders a lamport amount as SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return FromBaseUnits(decimal.NewFromUint64(lamports), NativeDecimals)
}
