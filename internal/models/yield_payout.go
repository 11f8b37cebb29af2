package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutSuccess PayoutStatus = "SUCCESS"
	PayoutFailed  PayoutStatus = "FAILED"
)

type YieldPayout struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PropertyAddress  string          `gorm:"size:64;index;not null" json:"propertyAddress"`
	Property         *Property       `gorm:"foreignKey:PropertyAddress;references:Address" json:"property,omitempty"`
	UserAddress      string          `gorm:"size:64;index" json:"userAddress"`
	AmountDinar      decimal.Decimal `gorm:"type:decimal(65,0);not null" json:"amountDinar"` // wei
	DistributionDate time.Time       `gorm:"index" json:"distributionDate"`
	TxHash           *string         `gorm:"size:100" json:"txHash"`
	Status           PayoutStatus    `gorm:"size:20;default:SUCCESS" json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
