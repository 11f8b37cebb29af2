package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aether-backend/internal/database"
	"aether-backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EntityProperty   = "property"
	EntityUser       = "user"
	EntityGoldenVisa = "golden_visa_application"
)

var (
	ErrAlreadyUndone = errors.New("this action has already been undone")
	ErrNotUndoable   = errors.New("this action cannot be undone")
)

type LogOptions struct {
	ActorAddress string
	ActorRole    models.UserRole
	EntityType   string
	EntityID     uint
	Action       models.AuditAction
	Description  string
	Before       any
	After        any
}

func snapshot(v any) datatypes.JSON {
	// jsonb rejects an empty string, so absent snapshots are stored as JSON null.
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func WriteLog(opts LogOptions) error {
	entry := models.AuditLog{
		ActorAddress: opts.ActorAddress,
		ActorRole:    string(opts.ActorRole),
		EntityType:   opts.EntityType,
		EntityID:     opts.EntityID,
		Action:       opts.Action,
		Description:  opts.Description,
		BeforeData:   snapshot(opts.Before),
		AfterData:    snapshot(opts.After),
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// UndoLog reverts the change recorded by a log entry and records the undo itself.
func UndoLog(logID uint, actorAddress string, actorRole models.UserRole) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("load audit log: %w", err)
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}

		var err error
		switch entry.Action {
		case models.AuditActionCreate:
			err = deleteEntity(tx, entry.EntityType, entry.EntityID)
		case models.AuditActionUpdate:
			err = restoreEntity(tx, entry.EntityType, entry.EntityID, entry.BeforeData)
		case models.AuditActionDelete:
			err = recreateEntity(tx, entry.EntityType, entry.BeforeData)
		default:
			err = ErrNotUndoable
		}
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"is_undone": true,
			"undone_by": actorAddress,
			"undone_at": now,
		}).Error; err != nil {
			return fmt.Errorf("mark audit log undone: %w", err)
		}

		undo := models.AuditLog{
			ActorAddress: actorAddress,
			ActorRole:    string(actorRole),
			EntityType:   entry.EntityType,
			EntityID:     entry.EntityID,
			Action:       models.AuditActionUndo,
			Description:  fmt.Sprintf("Undone: %s", entry.Description),
			BeforeData:   entry.AfterData,
			AfterData:    entry.BeforeData,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("write undo log: %w", err)
		}
		return nil
	})
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case EntityProperty:
		return tx.Delete(&models.Property{}, "id = ?", entityID).Error
	default:
		return ErrNotUndoable
	}
}

// propertySnapshot reads back the images array that Property.MarshalJSON emits.
func propertySnapshot(data datatypes.JSON) (models.Property, error) {
	var p models.Property
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode property snapshot: %w", err)
	}
	var extra struct {
		Images []string `json:"images"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return p, fmt.Errorf("decode property snapshot: %w", err)
	}
	p.SetImages(extra.Images)
	return p, nil
}

func recreateEntity(tx *gorm.DB, entityType string, data datatypes.JSON) error {
	switch entityType {
	case EntityProperty:
		p, err := propertySnapshot(data)
		if err != nil {
			return err
		}
		// Reuse the old id so later logs for this entity still resolve.
		return tx.Create(&p).Error
	default:
		return ErrNotUndoable
	}
}

func restoreEntity(tx *gorm.DB, entityType string, entityID uint, data datatypes.JSON) error {
	switch entityType {
	case EntityProperty:
		p, err := propertySnapshot(data)
		if err != nil {
			return err
		}
		return tx.Model(&models.Property{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"title":                p.Title,
			"symbol":               p.Symbol,
			"address":              p.Address,
			"location":             p.Location,
			"country":              p.Country,
			"valuation_usd":        p.ValuationUSD,
			"total_supply":         p.TotalSupply,
			"metadata_uri":         p.MetadataURI,
			"images":               p.Images,
			"type":                 p.Type,
			"yield":                p.Yield,
			"golden_visa_eligible": p.GoldenVisaEligible,
			"seller_address":       p.SellerAddress,
		}).Error

	case EntityUser:
		var u models.User
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("decode user snapshot: %w", err)
		}
		return tx.Model(&models.User{}).Where("id = ?", entityID).
			Update("kyc_status", u.KYCStatus).Error

	default:
		return ErrNotUndoable
	}
}
