package models

import "time"

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "PENDING"
	DocumentVerified DocumentStatus = "VERIFIED"
	DocumentRejected DocumentStatus = "REJECTED"
)

// Document is a KYC/visa file uploaded by an investor.
type Document struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserAddress string         `gorm:"size:64;index;not null" json:"userAddress"`
	FileName    string         `gorm:"size:255;not null" json:"fileName"`
	FileURL     string         `gorm:"size:255;not null" json:"fileUrl"`
	IPFSHash    *string        `gorm:"size:100" json:"ipfsHash"`
	Status      DocumentStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
