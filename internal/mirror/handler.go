package mirror

import (
	"log"

	"aether-backend/internal/database"
	"aether-backend/internal/models"
	"aether-backend/internal/web"

	"github.com/gofiber/fiber/v2"
)

// GET /api/balances/:address
func ListBalancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := web.NormalizeAddress(c.Params("address"))

		var balances []models.TokenBalance
		if err := database.DB.Where("wallet_address = ?", address).
			Order("token_address").
			Find(&balances).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Balances could not be listed")
		}

		return c.JSON(fiber.Map{"address": address, "balances": balances})
	}
}

// POST /api/balances/:address/refresh
func RefreshBalancesHandler(m *Mirror) fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := web.NormalizeAddress(c.Params("address"))
		if address == "" {
			return fiber.NewError(fiber.StatusBadRequest, "address is required")
		}

		var tokens []string
		if err := database.DB.Model(&models.Property{}).
			Where("address <> ''").
			Order("id").
			Pluck("address", &tokens).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Properties could not be listed")
		}
		tokens = append([]string{models.NativeToken}, tokens...)

		ctx := c.UserContext()
		balances, err := m.SyncWallet(ctx, address, tokens, m.height(ctx))
		if err != nil {
			log.Printf("Balance refresh for %s failed: %v", address, err)
			return fiber.NewError(fiber.StatusBadGateway, "Chain node unavailable")
		}

		return c.JSON(fiber.Map{"address": address, "balances": balances})
	}
}
