package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionUndo   AuditAction = "undo"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Who? Admin tokens carry a wallet address, not a user row.
	ActorAddress string `gorm:"size:64;index" json:"actor_address"`
	ActorRole    string `gorm:"size:20" json:"actor_role"`

	// e.g. "property", "user", "golden_visa_application"
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData datatypes.JSON `json:"before_data"`
	AfterData  datatypes.JSON `json:"after_data"`

	IsUndone bool       `gorm:"default:false" json:"is_undone"`
	UndoneBy *string    `gorm:"size:64" json:"undone_by"`
	UndoneAt *time.Time `json:"undone_at"`
}
