// Package dbtest swaps database.DB for an in-memory SQLite schema in tests.
package dbtest

import (
	"testing"

	"aether-backend/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Use points database.DB at a fresh in-memory schema for the duration of t.
func Use(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db handle: %v", err)
	}
	// each pooled connection to :memory: would be its own database
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		_ = sqlDB.Close()
	})
	return db
}
