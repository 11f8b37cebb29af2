package property

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"aether-backend/internal/audit"
	"aether-backend/internal/auth"
	"aether-backend/internal/database"
	"aether-backend/internal/models"
	"aether-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreatePropertyRequest struct {
	Title              string           `json:"title"`
	Symbol             string           `json:"symbol"`
	Address            string           `json:"address"`
	Location           string           `json:"location"`
	Country            string           `json:"country"`
	ValuationUSD       decimal.Decimal  `json:"valuationUSD"`
	TotalSupply        *decimal.Decimal `json:"totalSupply"` // wei; defaults to valuation tokens
	MetadataURI        string           `json:"metadataURI"`
	Images             []string         `json:"images"`
	Type               string           `json:"type"`
	Yield              decimal.Decimal  `json:"yield"`
	GoldenVisaEligible bool             `json:"goldenVisaEligible"`
	SellerAddress      string           `json:"sellerAddress"`
}

type UpdatePropertyRequest struct {
	Title              *string          `json:"title"`
	Symbol             *string          `json:"symbol"`
	Address            *string          `json:"address"`
	Location           *string          `json:"location"`
	Country            *string          `json:"country"`
	ValuationUSD       *decimal.Decimal `json:"valuationUSD"`
	TotalSupply        *decimal.Decimal `json:"totalSupply"`
	MetadataURI        *string          `json:"metadataURI"`
	Images             []string         `json:"images"`
	Type               *string          `json:"type"`
	Yield              *decimal.Decimal `json:"yield"`
	GoldenVisaEligible *bool            `json:"goldenVisaEligible"`
	SellerAddress      *string          `json:"sellerAddress"`
}

func (r *CreatePropertyRequest) validate() error {
	required := []struct{ name, value string }{
		{"title", r.Title}, {"symbol", r.Symbol}, {"address", r.Address},
		{"location", r.Location}, {"country", r.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	if r.ValuationUSD.IsNegative() {
		return errors.New("valuationUSD cannot be negative")
	}
	if r.Yield.IsNegative() {
		return errors.New("yield cannot be negative")
	}
	if r.TotalSupply != nil && r.TotalSupply.IsNegative() {
		return errors.New("totalSupply cannot be negative")
	}
	return nil
}

func writeAudit(c *fiber.Ctx, p models.Property, action models.AuditAction, desc string, before, after any) {
	address, role := auth.Actor(c)
	if err := audit.WriteLog(audit.LogOptions{
		ActorAddress: address,
		ActorRole:    role,
		EntityType:   audit.EntityProperty,
		EntityID:     p.ID,
		Action:       action,
		Description:  desc,
		Before:       before,
		After:        after,
	}); err != nil {
		log.Printf("Audit log not written: %v", err)
	}
}

// taken reports whether another property already uses the symbol or address.
func taken(symbol, address string, exceptID uint) (bool, error) {
	var count int64
	err := database.DB.Model(&models.Property{}).
		Where("(symbol = ? OR address = ?) AND id <> ?", symbol, address, exceptID).
		Count(&count).Error
	return count > 0, err
}

// GET /api/properties?exclude=0x...
func ListPropertiesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Property{})

		// exclude hides what the wallet already holds, via investments or golden visa deposits.
		if exclude := web.NormalizeAddress(c.Query("exclude")); exclude != "" {
			invested := database.DB.Model(&models.Investment{}).
				Select("property_address").
				Where("LOWER(user_address) = ?", exclude)
			deposited := database.DB.Model(&models.GoldenVisaDeposit{}).
				Select("property_id").
				Where("user_address = ?", exclude)
			dbq = dbq.Where("address NOT IN (?)", invested).Where("id NOT IN (?)", deposited)
		}

		var properties []models.Property
		if err := dbq.Order("id").Find(&properties).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Properties could not be listed")
		}

		return c.JSON(fiber.Map{
			"properties": properties,
			"total":      len(properties),
		})
	}
}

// GET /api/properties/:id
func GetPropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Property not found")
		}

		var property models.Property
		if err := database.DB.First(&property, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Property not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Property could not be loaded")
		}

		return c.JSON(fiber.Map{"property": property})
	}
}

// POST /api/properties
func CreatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := body.validate(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		property := models.Property{
			Title:              strings.TrimSpace(body.Title),
			Symbol:             strings.TrimSpace(body.Symbol),
			Address:            strings.TrimSpace(body.Address),
			Location:           strings.TrimSpace(body.Location),
			Country:            strings.TrimSpace(body.Country),
			ValuationUSD:       body.ValuationUSD,
			MetadataURI:        strings.TrimSpace(body.MetadataURI),
			Type:               strings.TrimSpace(body.Type),
			Yield:              body.Yield,
			GoldenVisaEligible: body.GoldenVisaEligible,
			SellerAddress:      strings.TrimSpace(body.SellerAddress),
		}
		if body.TotalSupply != nil {
			property.TotalSupply = *body.TotalSupply
		} else {
			property.TotalSupply = body.ValuationUSD.Truncate(0).Shift(18)
		}
		if property.Type == "" {
			property.Type = "Residential"
		}
		property.SetImages(body.Images)

		dup, err := taken(property.Symbol, property.Address, 0)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Property could not be saved")
		}
		if dup {
			return fiber.NewError(fiber.StatusConflict, "A property with this symbol or address already exists")
		}

		if err := database.DB.Create(&property).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "A property with this symbol or address already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Property could not be saved")
		}

		writeAudit(c, property, models.AuditActionCreate,
			fmt.Sprintf("Property created: %s (%s)", property.Title, property.Symbol), nil, property)

		return c.Status(fiber.StatusCreated).JSON(property)
	}
}

// PUT /api/properties/:id
func UpdatePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var property models.Property
		if err := database.DB.First(&property, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Property not found")
		}

		var body UpdatePropertyRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := property

		text := []struct {
			name string
			in   *string
			out  *string
			req  bool
		}{
			{"title", body.Title, &property.Title, true},
			{"symbol", body.Symbol, &property.Symbol, true},
			{"address", body.Address, &property.Address, true},
			{"location", body.Location, &property.Location, true},
			{"country", body.Country, &property.Country, true},
			{"type", body.Type, &property.Type, true},
			{"metadataURI", body.MetadataURI, &property.MetadataURI, false},
			{"sellerAddress", body.SellerAddress, &property.SellerAddress, false},
		}
		for _, f := range text {
			if f.in == nil {
				continue
			}
			v := strings.TrimSpace(*f.in)
			if f.req && v == "" {
				return fiber.NewError(fiber.StatusBadRequest, f.name+" cannot be empty")
			}
			*f.out = v
		}

		if body.ValuationUSD != nil {
			if body.ValuationUSD.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "valuationUSD cannot be negative")
			}
			property.ValuationUSD = *body.ValuationUSD
		}
		if body.Yield != nil {
			if body.Yield.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "yield cannot be negative")
			}
			property.Yield = *body.Yield
		}
		if body.TotalSupply != nil {
			if body.TotalSupply.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "totalSupply cannot be negative")
			}
			property.TotalSupply = *body.TotalSupply
		}
		if body.Images != nil {
			property.SetImages(body.Images)
		}
		if body.GoldenVisaEligible != nil {
			property.GoldenVisaEligible = *body.GoldenVisaEligible
		}

		dup, err := taken(property.Symbol, property.Address, property.ID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Property could not be updated")
		}
		if dup {
			return fiber.NewError(fiber.StatusConflict, "A property with this symbol or address already exists")
		}

		if err := database.DB.Save(&property).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Property could not be updated")
		}

		writeAudit(c, property, models.AuditActionUpdate,
			fmt.Sprintf("Property updated: %s", property.Symbol), before, property)

		return c.JSON(fiber.Map{"property": property})
	}
}

// DELETE /api/properties/:id
func DeletePropertyHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var property models.Property
		if err := database.DB.First(&property, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Property not found")
		}

		if err := database.DB.Delete(&property).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Property could not be deleted")
		}

		writeAudit(c, property, models.AuditActionDelete,
			fmt.Sprintf("Property deleted: %s (%s)", property.Title, property.Symbol), property, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/properties/seed
func SeedHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		created, err := Seed(database.DB)
		if err != nil {
			log.Printf("Seeding failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Properties could not be seeded")
		}
		return c.JSON(fiber.Map{
			"message": "Properties seeded successfully",
			"created": created,
		})
	}
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type Stats struct {
	TotalTVL         decimal.Decimal `json:"totalTVL"`
	ActiveProperties int64           `json:"activeProperties"`
	TotalInvestors   int64           `json:"totalInvestors"`
	TotalYieldPaid   decimal.Decimal `json:"totalYieldPaid"` // wei
}

// GET /api/properties/admin/stats
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var stats Stats

		if err := database.DB.Model(&models.Property{}).Count(&stats.ActiveProperties).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stats could not be computed")
		}
		if err := database.DB.Model(&models.Property{}).
			Select("COALESCE(SUM(valuation_usd), 0)").
			Row().Scan(&stats.TotalTVL); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stats could not be computed")
		}
		if err := database.DB.Model(&models.Investment{}).
			Distinct("user_address").
			Count(&stats.TotalInvestors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stats could not be computed")
		}
		if err := database.DB.Model(&models.YieldPayout{}).
			Where("status = ?", models.PayoutSuccess).
			Select("COALESCE(SUM(amount_dinar), 0)").
			Row().Scan(&stats.TotalYieldPaid); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stats could not be computed")
		}

		types := []TypeCount{}
		if err := database.DB.Model(&models.Property{}).
			Select("type, COUNT(id) AS count").
			Group("type").
			Order("type").
			Scan(&types).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stats could not be computed")
		}

		return c.JSON(fiber.Map{
			"stats":            stats,
			"typeDistribution": types,
		})
	}
}
