package market

import (
	"errors"
	"log"
	"strings"

	"aether-backend/internal/database"
	"aether-backend/internal/models"
	"aether-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	UserAddress     string           `json:"userAddress"`
	PropertyAddress string           `json:"propertyAddress"`
	Type            models.OrderType `json:"type"`
	Price           *decimal.Decimal `json:"price"`
	Amount          *decimal.Decimal `json:"amount"`
}

type ExecuteRequest struct {
	OrderID      uint   `json:"orderId"`
	TakerAddress string `json:"takerAddress"`
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Property").Preload("User")
}

// GET /api/market/orders?propertyAddress=&type=&status=
func ListOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := c.Query("status", string(models.OrderOpen))
		dbq := withRelations(database.DB).Where("status = ?", status)

		if p := c.Query("propertyAddress"); p != "" {
			dbq = dbq.Where("LOWER(property_address) = ?", strings.ToLower(p))
		}
		orderType := models.OrderType(c.Query("type"))
		if orderType != "" {
			dbq = dbq.Where("type = ?", orderType)
		}
		if orderType == models.OrderBuy {
			dbq = dbq.Order("price DESC")
		} else {
			dbq = dbq.Order("price ASC")
		}

		var orders []models.Order
		if err := dbq.Order("id").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch orders")
		}
		return c.JSON(fiber.Map{"orders": orders})
	}
}

// POST /api/market/orders
func CreateOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		user := web.NormalizeAddress(body.UserAddress)
		property := web.NormalizeAddress(body.PropertyAddress)
		if user == "" || property == "" || body.Type == "" || body.Price == nil || body.Amount == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required order fields")
		}
		if body.Type != models.OrderBuy && body.Type != models.OrderSell {
			return fiber.NewError(fiber.StatusBadRequest, "type must be BUY or SELL")
		}
		if !body.Price.IsPositive() || !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "price and amount must be positive")
		}

		// Keep the contract address as listed so the property association resolves.
		var listed models.Property
		if err := database.DB.Where("LOWER(address) = ?", property).First(&listed).Error; err == nil {
			property = listed.Address
		}

		order := models.Order{
			UserAddress:     user,
			PropertyAddress: property,
			Type:            body.Type,
			Price:           *body.Price,
			Amount:          *body.Amount,
			FilledAmount:    decimal.Zero,
			Status:          models.OrderOpen,
		}
		if err := database.DB.Create(&order).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to create order")
		}
		return c.JSON(fiber.Map{"message": "Order created successfully", "order": order})
	}
}

// POST /api/market/execute
func ExecuteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExecuteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.OrderID == 0 || web.NormalizeAddress(body.TakerAddress) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Missing orderId or takerAddress")
		}

		order, err := Execute(database.DB, body.OrderID, body.TakerAddress)
		switch {
		case err == nil:
		case errors.Is(err, ErrOrderNotOpen):
			return fiber.NewError(fiber.StatusNotFound, "Order not found or already filled")
		default:
			log.Printf("Trade execution failed for order %d: %v", body.OrderID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Trade execution failed")
		}

		return c.JSON(fiber.Map{"message": "Trade executed successfully", "order": order})
	}
}

// GET /api/market/activity
func ActivityHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var activity []models.Order
		if err := database.DB.Preload("Property").
			Where("status = ?", models.OrderFilled).
			Order("updated_at DESC").
			Order("id DESC").
			Limit(10).
			Find(&activity).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch activity")
		}
		return c.JSON(fiber.Map{"activity": activity})
	}
}
