package auth

import (
	"crypto/subtle"
	"log"

	"aether-backend/internal/config"
	"aether-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	var passwordHash []byte
	if cfg.AdminPassword != "" {
		var err error
		passwordHash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("admin password could not be hashed, login disabled: %v", err)
		}
	}

	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required fields")
		}

		if cfg.AdminUsername == "" || passwordHash == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}
		userOK := subtle.ConstantTimeCompare([]byte(body.Username), []byte(cfg.AdminUsername)) == 1
		passOK := bcrypt.CompareHashAndPassword(passwordHash, []byte(body.Password)) == nil
		if !userOK || !passOK {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.AdminWalletAddress, models.RoleAdmin)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token could not be created")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"address": cfg.AdminWalletAddress,
				"role":    models.RoleAdmin,
			},
		})
	}
}

// POST /api/auth/verify
func VerifyHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body VerifyRequest
		if err := c.BodyParser(&body); err != nil || body.Token == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Token required")
		}

		claims, err := ParseToken(cfg.JWTSecret, body.Token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"valid":   false,
				"message": "Invalid token",
			})
		}

		return c.JSON(fiber.Map{
			"valid": true,
			"user": fiber.Map{
				"address": claims.Address,
				"role":    claims.Role,
			},
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address, role := Actor(c)
		return c.JSON(fiber.Map{
			"address": address,
			"role":    role,
		})
	}
}
