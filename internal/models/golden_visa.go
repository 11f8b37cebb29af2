package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type GoldenVisaStatus string

const (
	VisaEligibility         GoldenVisaStatus = "ELIGIBILITY"
	VisaProfile             GoldenVisaStatus = "PROFILE"
	VisaDocuments           GoldenVisaStatus = "DOCUMENTS"
	VisaSubmitted           GoldenVisaStatus = "SUBMITTED"
	VisaProcessing          GoldenVisaStatus = "PROCESSING"
	VisaApprovedInPrinciple GoldenVisaStatus = "APPROVED_IN_PRINCIPLE"
	VisaCompleted           GoldenVisaStatus = "COMPLETED"
)

// Valid reports whether s is one of the known application stages.
func (s GoldenVisaStatus) Valid() bool {
	switch s {
	case VisaEligibility, VisaProfile, VisaDocuments, VisaSubmitted,
		VisaProcessing, VisaApprovedInPrinciple, VisaCompleted:
		return true
	}
	return false
}

type GoldenVisaApplication struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	UserAddress       string              `gorm:"size:64;index;not null" json:"userAddress"`
	FirstName         *string             `gorm:"size:100" json:"firstName"`
	LastName          *string             `gorm:"size:100" json:"lastName"`
	Email             *string             `gorm:"size:150" json:"email"`
	Nationality       *string             `gorm:"size:100" json:"nationality"`
	Occupation        *string             `gorm:"size:150" json:"occupation"`
	WealthSource      *string             `gorm:"size:255" json:"wealthSource"`
	InvestmentBudget  *string             `gorm:"size:100" json:"investmentBudget"`
	Summary           *string             `gorm:"type:text" json:"summary"`
	CurrentPortugal   float64             `gorm:"not null;default:0" json:"currentPortugal"`
	CurrentGreece     float64             `gorm:"not null;default:0" json:"currentGreece"`
	CurrentSpain      float64             `gorm:"not null;default:0" json:"currentSpain"`
	CurrentMontenegro float64             `gorm:"not null;default:0" json:"currentMontenegro"`
	Status            GoldenVisaStatus    `gorm:"size:30;not null;default:ELIGIBILITY" json:"status"`
	Deposits          []GoldenVisaDeposit `gorm:"foreignKey:ApplicationID" json:"goldenVisaDeposits"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

type GoldenVisaDeposit struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserAddress   string          `gorm:"size:64;index;not null" json:"userAddress"`
	PropertyID    uint            `gorm:"index;not null" json:"propertyId"`
	Property      *Property       `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	ApplicationID *uint           `gorm:"index" json:"applicationId"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"amount"`
	TxHash        string          `gorm:"size:100" json:"txHash"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
