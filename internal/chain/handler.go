package chain

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// GET /api/chain/height
func HeightHandler(client Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		height, err := client.BlockHeight(c.UserContext())
		if err != nil {
			log.Printf("Block height lookup failed: %v", err)
			return fiber.NewError(fiber.StatusBadGateway, "Chain node unavailable")
		}
		return c.JSON(fiber.Map{"height": height})
	}
}
