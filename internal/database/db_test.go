package database_test

import (
	"testing"

	"aether-backend/internal/database"
	"aether-backend/internal/database/dbtest"
	"aether-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesTables(t *testing.T) {
	db := dbtest.Use(t)

	for _, m := range []any{
		&models.User{}, &models.Property{}, &models.Investment{}, &models.YieldPayout{},
		&models.Order{}, &models.Document{}, &models.GoldenVisaApplication{},
		&models.GoldenVisaDeposit{}, &models.Message{}, &models.TokenBalance{}, &models.AuditLog{},
	} {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Use(t)
	require.NoError(t, database.Migrate(db))
}

func TestUniqueTxHash(t *testing.T) {
	db := dbtest.Use(t)

	inv := models.Investment{
		UserAddress:     "0xabc",
		PropertyAddress: "0xprop",
		TokenAmount:     decimal.NewFromInt(10),
		DinarPaid:       decimal.NewFromInt(100),
		TxHash:          "0xhash",
	}
	require.NoError(t, db.Create(&inv).Error)
	assert.Equal(t, models.InvestmentPending, inv.Status)

	dup := inv
	dup.ID = 0
	assert.Error(t, db.Create(&dup).Error)
}

func TestUniqueWalletAddress(t *testing.T) {
	db := dbtest.Use(t)

	require.NoError(t, db.Create(&models.User{WalletAddress: "0xabc"}).Error)
	assert.Error(t, db.Create(&models.User{WalletAddress: "0xabc"}).Error)
}
