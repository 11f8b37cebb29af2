package database

import (
	"fmt"
	"log"

	"aether-backend/internal/config"
	"aether-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	db, err := Open(postgres.Open(cfg.DatabaseDSN))
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	DB = db

	log.Println("Database connected. Migration complete.")
}

// Open connects through the given dialector and brings the schema up to date.
// Associations between wallet-addressed tables are soft: rows may reference
// wallets or contracts the platform has not seen yet.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// GormConfig translates driver errors so unique violations surface as gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	}
}

func Migrate(db *gorm.DB) error {
	// yield_payouts.user_address arrived after the first payouts were written.
	// Add it nullable and backfill before AutoMigrate sees the table.
	if db.Migrator().HasTable(&models.YieldPayout{}) && !db.Migrator().HasColumn(&models.YieldPayout{}, "user_address") {
		log.Println("Adding yield_payouts.user_address...")
		if err := db.Exec("ALTER TABLE yield_payouts ADD COLUMN user_address VARCHAR(64)").Error; err != nil {
			log.Printf("yield_payouts.user_address could not be added (may already exist): %v", err)
		}
		db.Exec("UPDATE yield_payouts SET user_address = '' WHERE user_address IS NULL")
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
		&models.Investment{},
		&models.YieldPayout{},
		&models.Order{},
		&models.Document{},
		&models.GoldenVisaApplication{},
		&models.GoldenVisaDeposit{},
		&models.Message{},
		&models.TokenBalance{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
