package user

import (
	"errors"
	"fmt"
	"log"

	"aether-backend/internal/audit"
	"aether-backend/internal/auth"
	"aether-backend/internal/database"
	"aether-backend/internal/models"
	"aether-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type KYCRequest struct {
	Status models.KYCStatus `json:"status"`
}

type UserResponse struct {
	models.User
	TotalInvested int `json:"totalInvested"`
}

// FindOrCreate returns the user for a lower-cased address, creating a
// PENDING/USER record when none exists.
func FindOrCreate(db *gorm.DB, address string, defaults models.User) (models.User, bool, error) {
	address = web.NormalizeAddress(address)

	var u models.User
	err := db.Where("wallet_address = ?", address).First(&u).Error
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return u, false, err
	}

	u = defaults
	u.WalletAddress = address
	if u.KYCStatus == "" {
		u.KYCStatus = models.KYCPending
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if err := db.Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with another request; read the winner
			err = db.Where("wallet_address = ?", address).First(&u).Error
			return u, false, err
		}
		return u, false, err
	}
	return u, true, nil
}

// GET /api/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Preload("Investments").Order("id").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Users could not be listed")
		}

		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			if u.Investments == nil {
				u.Investments = []models.Investment{}
			}
			resp = append(resp, UserResponse{User: u, TotalInvested: len(u.Investments)})
		}
		return c.JSON(fiber.Map{"users": resp})
	}
}

// POST /api/users/register
func RegisterHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if web.NormalizeAddress(body.WalletAddress) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Wallet address required")
		}

		u, created, err := FindOrCreate(database.DB, body.WalletAddress, models.User{})
		if err != nil {
			log.Printf("Register %s failed: %v", body.WalletAddress, err)
			return fiber.NewError(fiber.StatusInternalServerError, "User could not be registered")
		}
		return c.JSON(fiber.Map{"user": u, "created": created})
	}
}

// PATCH /api/users/:address/kyc
func UpdateKYCHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body KYCRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var u models.User
		if err := database.DB.Where("wallet_address = ?", web.NormalizeAddress(c.Params("address"))).First(&u).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		if !body.Status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid KYC status")
		}

		before := u
		if err := database.DB.Model(&u).Update("kyc_status", body.Status).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to update KYC")
		}
		u.KYCStatus = body.Status

		actor, role := auth.Actor(c)
		if err := audit.WriteLog(audit.LogOptions{
			ActorAddress: actor,
			ActorRole:    role,
			EntityType:   audit.EntityUser,
			EntityID:     u.ID,
			Action:       models.AuditActionUpdate,
			Description:  fmt.Sprintf("KYC of %s: %s -> %s", u.WalletAddress, before.KYCStatus, u.KYCStatus),
			Before:       before,
			After:        u,
		}); err != nil {
			log.Printf("Audit log not written: %v", err)
		}

		return c.JSON(fiber.Map{"message": "KYC Status updated", "user": u})
	}
}
