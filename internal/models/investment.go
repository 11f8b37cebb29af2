package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvestmentStatus string

const (
	InvestmentPending   InvestmentStatus = "PENDING"
	InvestmentConfirmed InvestmentStatus = "CONFIRMED"
	InvestmentFailed    InvestmentStatus = "FAILED"
)

// SyntheticTxPrefix marks investments created by off-chain market trades.
const SyntheticTxPrefix = "0xex_"

type Investment struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	UserAddress     string           `gorm:"size:64;index;not null" json:"userAddress"`
	PropertyAddress string           `gorm:"size:64;index;not null" json:"propertyAddress"`
	Property        *Property        `gorm:"foreignKey:PropertyAddress;references:Address" json:"property,omitempty"`
	TokenAmount     decimal.Decimal  `gorm:"type:decimal(20,6);not null" json:"tokenAmount"`
	DinarPaid       decimal.Decimal  `gorm:"type:decimal(20,6);not null" json:"dinarPaid"`
	TxHash          string           `gorm:"size:100;uniqueIndex;not null" json:"txHash"`
	Status          InvestmentStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}
