package user

import (
	"net/http"
	"testing"

	"aether-backend/internal/audit"
	"aether-backend/internal/auth"
	"aether-backend/internal/config"
	"aether-backend/internal/database"
	"aether-backend/internal/database/dbtest"
	"aether-backend/internal/models"
	"aether-backend/internal/web"
	"aether-backend/internal/web/webtest"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	cfg := &config.Config{JWTSecret: webtest.Secret}
	jwt, admin := auth.JWTMiddleware(cfg), auth.RequireRole(models.RoleAdmin)

	app := web.NewApp()
	users := app.Group("/api/users")
	users.Get("/", jwt, admin, ListUsersHandler())
	users.Post("/register", RegisterHandler())
	users.Patch("/:address/kyc", jwt, admin, UpdateKYCHandler())
	return app
}

func TestRegisterFindsOrCreates(t *testing.T) {
	dbtest.Use(t)
	app := newApp()

	status, body := webtest.Do(t, app, http.MethodPost, "/api/users/register", map[string]string{"walletAddress": "0xABCdef"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["created"])
	u := body["user"].(map[string]interface{})
	assert.Equal(t, "0xabcdef", u["walletAddress"])
	assert.Equal(t, "PENDING", u["kycStatus"])
	assert.Equal(t, "USER", u["role"])

	status, body = webtest.Do(t, app, http.MethodPost, "/api/users/register", map[string]string{"walletAddress": "0xabcDEF"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["created"])

	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	status, _ = webtest.Do(t, app, http.MethodPost, "/api/users/register", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListUsersWithInvestments(t *testing.T) {
	dbtest.Use(t)
	_, _, err := FindOrCreate(database.DB, "0xalice", models.User{})
	require.NoError(t, err)
	_, _, err = FindOrCreate(database.DB, "0xbob", models.User{})
	require.NoError(t, err)
	for _, h := range []string{"0x1", "0x2"} {
		require.NoError(t, database.DB.Create(&models.Investment{
			UserAddress: "0xalice", PropertyAddress: "0xp",
			TokenAmount: decimal.NewFromInt(1), DinarPaid: decimal.NewFromInt(1), TxHash: h,
		}).Error)
	}

	app := newApp()
	status, _ := webtest.Do(t, app, http.MethodGet, "/api/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := webtest.Do(t, app, http.MethodGet, "/api/users", nil, webtest.Token(t, "0xadmin", models.RoleAdmin))
	require.Equal(t, http.StatusOK, status)
	users := body["users"].([]interface{})
	require.Len(t, users, 2)
	assert.Equal(t, float64(2), users[0].(map[string]interface{})["totalInvested"])
	assert.Len(t, users[0].(map[string]interface{})["investments"], 2)
	assert.Equal(t, float64(0), users[1].(map[string]interface{})["totalInvested"])
}

func TestUpdateKYC(t *testing.T) {
	dbtest.Use(t)
	u, _, err := FindOrCreate(database.DB, "0xalice", models.User{})
	require.NoError(t, err)

	app := newApp()
	admin := webtest.Token(t, "0xadmin", models.RoleAdmin)

	status, _ := webtest.Do(t, app, http.MethodPatch, "/api/users/0xnobody/kyc", map[string]string{"status": "APPROVED"}, admin)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = webtest.Do(t, app, http.MethodPatch, "/api/users/0xALICE/kyc", map[string]string{"status": "MAYBE"}, admin)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := webtest.Do(t, app, http.MethodPatch, "/api/users/0xALICE/kyc", map[string]string{"status": "APPROVED"}, admin)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "APPROVED", body["user"].(map[string]interface{})["kycStatus"])

	var entry models.AuditLog
	require.NoError(t, database.DB.Where("entity_type = ?", audit.EntityUser).First(&entry).Error)
	assert.Equal(t, u.ID, entry.EntityID)
	assert.Equal(t, "0xadmin", entry.ActorAddress)

	// the KYC change can be rolled back from the audit trail
	require.NoError(t, audit.UndoLog(entry.ID, "0xadmin", models.RoleAdmin))
	var back models.User
	require.NoError(t, database.DB.First(&back, u.ID).Error)
	assert.Equal(t, models.KYCPending, back.KYCStatus)
}
