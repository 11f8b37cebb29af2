package auth

import (
	"errors"
	"strings"

	"aether-backend/internal/config"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxAddressKey  = "address"
	CtxUserRoleKey = "user_role"
)

var (
	ErrSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken  = errors.New("invalid token")
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(CtxAddressKey, claims.Address)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role information missing")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Admin access required")
	}
}

// Actor returns the address and role of the authenticated caller.
func Actor(c *fiber.Ctx) (string, models.UserRole) {
	address, _ := c.Locals(CtxAddressKey).(string)
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	return address, role
}
