package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stocksaga/stocksaga-api/internal/auth"
	"github.com/stocksaga/stocksaga-api/internal/database/migrations"
	"github.com/stocksaga/stocksaga-api/internal/types"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.BackfillTotalCost(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&auth.User{},
		&types.Holding{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
