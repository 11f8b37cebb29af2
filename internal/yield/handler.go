package yield

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Distributor starts distributions without waiting for them.
type Distributor interface {
	DistributeAsync(propertyAddress string)
	DistributeAllAsync()
}

type distributeRequest struct {
	PropertyAddress string `json:"propertyAddress"`
}

// POST /api/properties/yield-distribute
func DistributeHandler(d Distributor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body distributeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		address := strings.TrimSpace(body.PropertyAddress)
		if address == "" {
			return fiber.NewError(fiber.StatusBadRequest, "propertyAddress is required")
		}

		d.DistributeAsync(address)
		return c.JSON(fiber.Map{"message": "Yield distribution started in background"})
	}
}

// POST /api/properties/yield-distribute-all
func DistributeAllHandler(d Distributor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d.DistributeAllAsync()
		return c.JSON(fiber.Map{"message": "Global yield distribution triggered for all properties"})
	}
}
