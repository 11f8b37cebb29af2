package investment

import (
	"errors"
	"strings"

	"aether-backend/internal/database"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecordInvestmentRequest struct {
	UserAddress     string           `json:"userAddress"`
	PropertyAddress string           `json:"propertyAddress"`
	TokenAmount     *decimal.Decimal `json:"tokenAmount"`
	DinarPaid       *decimal.Decimal `json:"dinarPaid"`
	TxHash          string           `json:"txHash"`
}

// GET /api/investments/user/:address
func ListUserInvestmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var investments []models.Investment
		if err := database.DB.Preload("Property").
			Where("user_address = ?", c.Params("address")).
			Order("created_at DESC").
			Find(&investments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Investments could not be listed")
		}
		return c.JSON(fiber.Map{"investments": investments})
	}
}

// GET /api/investments/payouts/user/:address
func ListUserPayoutsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payouts []models.YieldPayout
		if err := database.DB.Preload("Property").
			Where("user_address = ?", c.Params("address")).
			Order("distribution_date DESC").
			Order("id DESC").
			Find(&payouts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Payouts could not be listed")
		}
		return c.JSON(fiber.Map{"payouts": payouts})
	}
}

// POST /api/investments/record
//
// Lets the wallet front-end record a purchase right after broadcasting it;
// the chain mirror settles the status later.
func RecordInvestmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecordInvestmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.UserAddress = strings.TrimSpace(body.UserAddress)
		body.PropertyAddress = strings.TrimSpace(body.PropertyAddress)
		body.TxHash = strings.TrimSpace(body.TxHash)
		if body.UserAddress == "" || body.PropertyAddress == "" || body.TxHash == "" ||
			body.TokenAmount == nil || body.DinarPaid == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
		}
		if !body.TokenAmount.IsPositive() || body.DinarPaid.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid amounts")
		}

		investment := models.Investment{
			UserAddress:     body.UserAddress,
			PropertyAddress: body.PropertyAddress,
			TokenAmount:     *body.TokenAmount,
			DinarPaid:       *body.DinarPaid,
			TxHash:          body.TxHash,
			Status:          models.InvestmentPending,
		}

		var count int64
		if err := database.DB.Model(&models.Investment{}).Where("tx_hash = ?", investment.TxHash).Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Investment could not be recorded")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusConflict, "Transaction already recorded")
		}

		if err := database.DB.Create(&investment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "Transaction already recorded")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Investment could not be recorded")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"investment": investment})
	}
}
