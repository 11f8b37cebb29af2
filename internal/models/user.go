package models

import "time"

type UserRole string

const (
	RoleUser   UserRole = "USER"
	RoleAdmin  UserRole = "ADMIN"
	RoleBuyer  UserRole = "BUYER"
	RoleSeller UserRole = "SELLER"
)

type KYCStatus string

const (
	KYCPending  KYCStatus = "PENDING"
	KYCApproved KYCStatus = "APPROVED"
	KYCRejected KYCStatus = "REJECTED"
)

func (s KYCStatus) Valid() bool {
	return s == KYCPending || s == KYCApproved || s == KYCRejected
}

// User is a wallet registered with the platform; WalletAddress is stored lower-cased.
type User struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	WalletAddress string       `gorm:"size:64;uniqueIndex;not null" json:"walletAddress"`
	Name          *string      `gorm:"size:100" json:"name"`
	Email         *string      `gorm:"size:150" json:"email"`
	KYCStatus     KYCStatus    `gorm:"size:20;default:PENDING" json:"kycStatus"`
	Role          UserRole     `gorm:"size:20;default:USER" json:"role"`
	Investments   []Investment `gorm:"foreignKey:UserAddress;references:WalletAddress" json:"investments,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
