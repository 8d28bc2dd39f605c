package entities

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ChainBSC is the identifier stored on deposit wallets scanned on BNB Smart Chain
const ChainBSC = "bsc"

// DepositToken describes the token contract watched for deposits on a chain
type DepositToken struct {
	Chain    string `json:"chain"`
	Symbol   string `json:"symbol"`
	Contract string `json:"contract"`
	Decimals int32  `json:"decimals"`
}

// NormalizeAddress lower-cases a hex address and trims whitespace
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ToAmount converts raw token units into a decimal amount
func (t DepositToken) ToAmount(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -t.Decimals)
}

// ToRawUnits converts a decimal amount into raw token units, truncating
// anything below the token's precision.
func (t DepositToken) ToRawUnits(amount decimal.Decimal) *big.Int {
	return amount.Shift(t.Decimals).Truncate(0).BigInt()
}
