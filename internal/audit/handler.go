package audit

import (
	"errors"
	"log"
	"strconv"

	"aether-backend/internal/auth"
	"aether-backend/internal/database"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/audit-logs?entity_type=property&entity_id=1&actor=0x...
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eid, err := strconv.ParseUint(c.Query("entity_id"), 10, 64); err == nil && eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}
		if actor := c.Query("actor"); actor != "" {
			dbq = dbq.Where("actor_address = ?", actor)
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Order("id DESC").Limit(500).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Audit logs could not be listed")
		}

		return c.JSON(fiber.Map{"logs": logs})
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil || logID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid log ID")
		}

		address, role := auth.Actor(c)

		err = UndoLog(uint(logID), address, role)
		switch {
		case err == nil:
		case errors.Is(err, gorm.ErrRecordNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Log not found")
		case errors.Is(err, ErrAlreadyUndone), errors.Is(err, ErrNotUndoable):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			log.Printf("Undo of audit log %d failed: %v", logID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Action could not be undone")
		}

		return c.JSON(fiber.Map{"message": "Action undone"})
	}
}
