package chain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const Decimals = 18

// ToWei converts a whole-coin amount to wei, truncating below one wei.
func ToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(Decimals).Truncate(0).BigInt()
}

// FromWei converts wei to whole coins.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -Decimals)
}

// HexAmount renders wei the way the node expects transaction values.
func HexAmount(wei *big.Int) string {
	return "0x" + wei.Text(16)
}
