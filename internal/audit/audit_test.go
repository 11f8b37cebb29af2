package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"aether-backend/internal/auth"
	"aether-backend/internal/config"
	"aether-backend/internal/database"
	"aether-backend/internal/database/dbtest"
	"aether-backend/internal/models"
	"aether-backend/internal/web"
	"aether-backend/internal/web/webtest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProperty(t *testing.T) models.Property {
	t.Helper()
	p := models.Property{
		Title:        "Marina Loft",
		Symbol:       "MLT",
		Address:      "0xprop1",
		Location:     "Dubai Marina",
		Country:      "UAE",
		ValuationUSD: decimal.NewFromInt(500000),
		TotalSupply:  decimal.NewFromInt(1000),
		Type:         "Residential",
		Yield:        decimal.NewFromFloat(7.5),
	}
	p.SetImages([]string{"https://img/1.jpg"})
	require.NoError(t, database.DB.Create(&p).Error)
	return p
}

func TestWriteLogStoresSnapshots(t *testing.T) {
	dbtest.Use(t)
	p := seedProperty(t)

	require.NoError(t, WriteLog(LogOptions{
		ActorAddress: "0xadmin",
		ActorRole:    models.RoleAdmin,
		EntityType:   EntityProperty,
		EntityID:     p.ID,
		Action:       models.AuditActionCreate,
		Description:  "Property created",
		After:        p,
	}))

	var entry models.AuditLog
	require.NoError(t, database.DB.First(&entry).Error)
	assert.Equal(t, "null", string(entry.BeforeData))

	var after map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.AfterData, &after))
	assert.Equal(t, "MLT", after["symbol"])
	assert.Equal(t, []interface{}{"https://img/1.jpg"}, after["images"])
}

func TestUndoCreateDeletesProperty(t *testing.T) {
	dbtest.Use(t)
	p := seedProperty(t)
	require.NoError(t, WriteLog(LogOptions{EntityType: EntityProperty, EntityID: p.ID, Action: models.AuditActionCreate, After: p}))

	var entry models.AuditLog
	require.NoError(t, database.DB.First(&entry).Error)
	require.NoError(t, UndoLog(entry.ID, "0xadmin", models.RoleAdmin))

	var count int64
	database.DB.Model(&models.Property{}).Count(&count)
	assert.Zero(t, count)

	require.NoError(t, database.DB.First(&entry, entry.ID).Error)
	assert.True(t, entry.IsUndone)
	require.NotNil(t, entry.UndoneBy)
	assert.Equal(t, "0xadmin", *entry.UndoneBy)

	assert.ErrorIs(t, UndoLog(entry.ID, "0xadmin", models.RoleAdmin), ErrAlreadyUndone)
}

func TestUndoUpdateRestoresProperty(t *testing.T) {
	dbtest.Use(t)
	p := seedProperty(t)
	before := p

	p.Title = "Renamed"
	p.SetImages([]string{"https://img/2.jpg", "https://img/3.jpg"})
	require.NoError(t, database.DB.Save(&p).Error)
	require.NoError(t, WriteLog(LogOptions{EntityType: EntityProperty, EntityID: p.ID, Action: models.AuditActionUpdate, Before: before, After: p}))

	var entry models.AuditLog
	require.NoError(t, database.DB.First(&entry).Error)
	require.NoError(t, UndoLog(entry.ID, "0xadmin", models.RoleAdmin))

	var restored models.Property
	require.NoError(t, database.DB.First(&restored, p.ID).Error)
	assert.Equal(t, "Marina Loft", restored.Title)
	assert.Equal(t, []string{"https://img/1.jpg"}, restored.ImageList())

	var undoCount int64
	database.DB.Model(&models.AuditLog{}).Where("action = ?", models.AuditActionUndo).Count(&undoCount)
	assert.Equal(t, int64(1), undoCount)
}

func TestUndoDeleteRecreatesProperty(t *testing.T) {
	dbtest.Use(t)
	p := seedProperty(t)
	require.NoError(t, database.DB.Delete(&models.Property{}, p.ID).Error)
	require.NoError(t, WriteLog(LogOptions{EntityType: EntityProperty, EntityID: p.ID, Action: models.AuditActionDelete, Before: p}))

	var entry models.AuditLog
	require.NoError(t, database.DB.First(&entry).Error)
	require.NoError(t, UndoLog(entry.ID, "0xadmin", models.RoleAdmin))

	var back models.Property
	require.NoError(t, database.DB.First(&back, "symbol = ?", "MLT").Error)
	assert.Equal(t, p.ID, back.ID)
	assert.Equal(t, "0xprop1", back.Address)
	assert.Equal(t, []string{"https://img/1.jpg"}, back.ImageList())
}

func TestUndoUnknownEntityIsRejected(t *testing.T) {
	dbtest.Use(t)
	require.NoError(t, WriteLog(LogOptions{EntityType: EntityGoldenVisa, EntityID: 1, Action: models.AuditActionUpdate}))

	var entry models.AuditLog
	require.NoError(t, database.DB.First(&entry).Error)
	assert.ErrorIs(t, UndoLog(entry.ID, "0xadmin", models.RoleAdmin), ErrNotUndoable)

	require.NoError(t, database.DB.First(&entry, entry.ID).Error)
	assert.False(t, entry.IsUndone)
}

func TestAuditHandlers(t *testing.T) {
	dbtest.Use(t)
	p := seedProperty(t)
	require.NoError(t, WriteLog(LogOptions{ActorAddress: "0xadmin", EntityType: EntityProperty, EntityID: p.ID, Action: models.AuditActionCreate, After: p}))
	require.NoError(t, WriteLog(LogOptions{ActorAddress: "0xother", EntityType: EntityUser, EntityID: 9, Action: models.AuditActionUpdate}))

	cfg := &config.Config{JWTSecret: webtest.Secret}
	app := web.NewApp()
	app.Use(auth.JWTMiddleware(cfg), auth.RequireRole(models.RoleAdmin))
	app.Get("/audit-logs", ListAuditLogsHandler())
	app.Post("/audit-logs/:id/undo", UndoAuditLogHandler())

	token := webtest.Token(t, "0xadmin", models.RoleAdmin)

	status, body := webtest.Do(t, app, http.MethodGet, "/audit-logs?entity_type=property", nil, token)
	require.Equal(t, http.StatusOK, status)
	logs := body["logs"].([]interface{})
	require.Len(t, logs, 1)
	id := logs[0].(map[string]interface{})["id"].(float64)

	status, body = webtest.Do(t, app, http.MethodGet, "/audit-logs?actor=0xother", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["logs"], 1)

	status, _ = webtest.Do(t, app, http.MethodPost, "/audit-logs/abc/undo", nil, token)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = webtest.Do(t, app, http.MethodPost, "/audit-logs/999/undo", nil, token)
	assert.Equal(t, http.StatusNotFound, status)

	path := "/audit-logs/" + decimal.NewFromFloat(id).String() + "/undo"
	status, _ = webtest.Do(t, app, http.MethodPost, path, nil, token)
	assert.Equal(t, http.StatusOK, status)

	status, body = webtest.Do(t, app, http.MethodPost, path, nil, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, ErrAlreadyUndone.Error(), body["error"])

	userToken := webtest.Token(t, "0xuser", models.RoleUser)
	status, _ = webtest.Do(t, app, http.MethodGet, "/audit-logs", nil, userToken)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUndoHandlerHidesStorageErrors(t *testing.T) {
	dbtest.Use(t)
	p := seedProperty(t)
	require.NoError(t, WriteLog(LogOptions{ActorAddress: "0xadmin", EntityType: EntityProperty, EntityID: p.ID, Action: models.AuditActionCreate, After: p}))
	var entry models.AuditLog
	require.NoError(t, database.DB.Last(&entry).Error)

	require.NoError(t, database.DB.Migrator().DropTable(&models.Property{}))

	cfg := &config.Config{JWTSecret: webtest.Secret}
	app := web.NewApp()
	app.Use(auth.JWTMiddleware(cfg), auth.RequireRole(models.RoleAdmin))
	app.Post("/audit-logs/:id/undo", UndoAuditLogHandler())

	token := webtest.Token(t, "0xadmin", models.RoleAdmin)
	status, body := webtest.Do(t, app, http.MethodPost, "/audit-logs/"+strconv.FormatUint(uint64(entry.ID), 10)+"/undo", nil, token)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Action could not be undone", body["error"])

	require.NoError(t, database.DB.First(&entry, entry.ID).Error)
	assert.False(t, entry.IsUndone)
}
