package db

import (
	"github.com/diewo77/factures-api/internal/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for all models.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Invoice{},
		&models.LineItem{},
	)
}
