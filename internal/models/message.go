package models

import "time"

type Message struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SenderAddress   string    `gorm:"size:64;index;not null" json:"senderAddress"`
	ReceiverAddress string    `gorm:"size:64;index;not null" json:"receiverAddress"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	IsRead          bool      `gorm:"default:false" json:"isRead"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
