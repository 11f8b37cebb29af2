package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderBuy  OrderType = "BUY"
	OrderSell OrderType = "SELL"
)

type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderFilled    OrderStatus = "FILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Order is a secondary-market offer on property tokens, priced in DNR per token.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserAddress     string          `gorm:"size:64;index;not null" json:"userAddress"`
	User            *User           `gorm:"foreignKey:UserAddress;references:WalletAddress" json:"user,omitempty"`
	PropertyAddress string          `gorm:"size:64;index;not null" json:"propertyAddress"`
	Property        *Property       `gorm:"foreignKey:PropertyAddress;references:Address" json:"property,omitempty"`
	Type            OrderType       `gorm:"size:10;not null" json:"type"`
	Price           decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"price"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount"`
	FilledAmount    decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0" json:"filledAmount"`
	Status          OrderStatus     `gorm:"size:20;not null;default:OPEN;index" json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
