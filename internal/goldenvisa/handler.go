package goldenvisa

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"aether-backend/internal/audit"
	"aether-backend/internal/auth"
	"aether-backend/internal/database"
	"aether-backend/internal/models"
	"aether-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type NewApplicationRequest struct {
	UserAddress string `json:"userAddress"`
}

type DepositRequest struct {
	UserAddress   string           `json:"userAddress"`
	PropertyID    uint             `json:"propertyId"`
	ApplicationID uint             `json:"applicationId"`
	Amount        *decimal.Decimal `json:"amount"`
	TxHash        string           `json:"txHash"`
}

// UpdateApplicationRequest lists the fields an applicant may change.
type UpdateApplicationRequest struct {
	FirstName         *string                  `json:"firstName"`
	LastName          *string                  `json:"lastName"`
	Email             *string                  `json:"email"`
	Nationality       *string                  `json:"nationality"`
	Occupation        *string                  `json:"occupation"`
	WealthSource      *string                  `json:"wealthSource"`
	InvestmentBudget  *string                  `json:"investmentBudget"`
	Summary           *string                  `json:"summary"`
	CurrentPortugal   *float64                 `json:"currentPortugal"`
	CurrentGreece     *float64                 `json:"currentGreece"`
	CurrentSpain      *float64                 `json:"currentSpain"`
	CurrentMontenegro *float64                 `json:"currentMontenegro"`
	Status            *models.GoldenVisaStatus `json:"status"`
}

func (r UpdateApplicationRequest) updates() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	text := map[string]*string{
		"first_name":        r.FirstName,
		"last_name":         r.LastName,
		"email":             r.Email,
		"nationality":       r.Nationality,
		"occupation":        r.Occupation,
		"wealth_source":     r.WealthSource,
		"investment_budget": r.InvestmentBudget,
		"summary":           r.Summary,
	}
	for col, v := range text {
		if v != nil {
			out[col] = *v
		}
	}
	totals := map[string]*float64{
		"current_portugal":   r.CurrentPortugal,
		"current_greece":     r.CurrentGreece,
		"current_spain":      r.CurrentSpain,
		"current_montenegro": r.CurrentMontenegro,
	}
	for col, v := range totals {
		if v == nil {
			continue
		}
		if *v < 0 {
			return nil, fmt.Errorf("%s cannot be negative", col)
		}
		out[col] = *v
	}
	if r.Status != nil {
		if !r.Status.Valid() {
			return nil, errors.New("invalid application status")
		}
		out["status"] = *r.Status
	}
	return out, nil
}

func withDeposits(db *gorm.DB) *gorm.DB {
	return db.Preload("Deposits", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at")
	}).Preload("Deposits.Property")
}

func latest(address string) (models.GoldenVisaApplication, error) {
	var app models.GoldenVisaApplication
	err := withDeposits(database.DB).
		Where("user_address = ?", address).
		Order("created_at DESC").
		Order("id DESC").
		First(&app).Error
	return app, err
}

func start(address string) (models.GoldenVisaApplication, error) {
	app := models.GoldenVisaApplication{
		UserAddress: address,
		Status:      models.VisaEligibility,
		Deposits:    []models.GoldenVisaDeposit{},
	}
	err := database.DB.Create(&app).Error
	return app, err
}

// GET /api/golden-visa/:address
func GetLatestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := web.NormalizeAddress(c.Params("address"))

		app, err := latest(address)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			app, err = start(address)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error fetching application")
		}
		if app.Deposits == nil {
			app.Deposits = []models.GoldenVisaDeposit{}
		}
		return c.JSON(fiber.Map{"application": app})
	}
}

// GET /api/golden-visa/list/:address
func ListHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var apps []models.GoldenVisaApplication
		if err := withDeposits(database.DB).
			Where("user_address = ?", web.NormalizeAddress(c.Params("address"))).
			Order("created_at DESC").
			Order("id DESC").
			Find(&apps).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error fetching applications")
		}
		return c.JSON(fiber.Map{"applications": apps})
	}
}

// POST /api/golden-visa/new
func NewApplicationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body NewApplicationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		address := web.NormalizeAddress(body.UserAddress)
		if address == "" {
			return fiber.NewError(fiber.StatusBadRequest, "userAddress is required")
		}

		app, err := start(address)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error starting new application")
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":     "New application started",
			"application": app,
		})
	}
}

// POST /api/golden-visa/deposit
func DepositHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DepositRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		address := web.NormalizeAddress(body.UserAddress)
		if address == "" || body.PropertyID == 0 || body.ApplicationID == 0 || body.Amount == nil || body.Amount.IsZero() {
			return fiber.NewError(fiber.StatusBadRequest, "Missing required fields (including applicationId)")
		}

		appID := body.ApplicationID
		deposit := models.GoldenVisaDeposit{
			UserAddress:   address,
			PropertyID:    body.PropertyID,
			ApplicationID: &appID,
			Amount:        *body.Amount,
			TxHash:        body.TxHash,
		}
		if err := database.DB.Create(&deposit).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error recording deposit")
		}
		return c.JSON(fiber.Map{"message": "Deposit recorded", "deposit": deposit})
	}
}

func applyUpdate(c *fiber.Ctx, app models.GoldenVisaApplication) error {
	var body UpdateApplicationRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	updates, err := body.updates()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	before := app
	before.Deposits = nil
	if len(updates) > 0 {
		if err := database.DB.Model(&app).Omit("Deposits").Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error updating application")
		}
	}

	var after models.GoldenVisaApplication
	if err := withDeposits(database.DB).First(&after, app.ID).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Error updating application")
	}

	if before.Status != after.Status {
		log.Printf("Golden visa application %d of %s: %s -> %s", app.ID, app.UserAddress, before.Status, after.Status)
	}
	actor, role := auth.Actor(c)
	if actor == "" {
		actor = app.UserAddress
	}
	if err := audit.WriteLog(audit.LogOptions{
		ActorAddress: actor,
		ActorRole:    role,
		EntityType:   audit.EntityGoldenVisa,
		EntityID:     app.ID,
		Action:       models.AuditActionUpdate,
		Description:  fmt.Sprintf("Golden visa application %d updated", app.ID),
		Before:       before,
		After:        updates,
	}); err != nil {
		log.Printf("Audit log not written: %v", err)
	}

	return c.JSON(fiber.Map{"message": "Application updated", "application": after})
}

// PATCH /api/golden-visa/:address
func UpdateLatestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		app, err := latest(web.NormalizeAddress(c.Params("address")))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		return applyUpdate(c, app)
	}
}

// PATCH /api/golden-visa/id/:id
func UpdateByIDHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		var app models.GoldenVisaApplication
		if err := database.DB.First(&app, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Application not found")
		}
		return applyUpdate(c, app)
	}
}
