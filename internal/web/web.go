package web

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every failure as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	log.Println("Unexpected error:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "aether-backend",
		ErrorHandler: ErrorHandler,
		BodyLimit:    12 * 1024 * 1024,
	})
}

// NormalizeAddress lower-cases and trims a wallet address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
