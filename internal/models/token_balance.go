package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NativeToken is the TokenAddress used for the chain's own DNR balance.
const NativeToken = ""

// TokenBalance mirrors an on-chain balance, in wei, as last seen by the RPC node.
type TokenBalance struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	WalletAddress string          `gorm:"size:64;not null;uniqueIndex:idx_wallet_token" json:"walletAddress"`
	TokenAddress  string          `gorm:"size:64;not null;uniqueIndex:idx_wallet_token" json:"tokenAddress"`
	Balance       decimal.Decimal `gorm:"type:decimal(65,0);not null" json:"balance"`
	BlockHeight   uint64          `json:"blockHeight"`
	CheckedAt     time.Time       `json:"checkedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
