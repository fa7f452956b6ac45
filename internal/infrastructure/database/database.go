package database

import (
	"fmt"

	"shopify-preorder-layer/internal/config"
	"shopify-preorder-layer/internal/infrastructure/repository/entity"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect returns the gorm dialector for the configured relational driver
func Dialect(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DatabaseURL), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.StorageDriver)
	}
}

// Open connects to the relational database and migrates the schema
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialect, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialect, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory sqlite database, migrated
func OpenMemory() (*gorm.DB, error) {
	db, err := OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every connection to a named memory db shares it, one avoids table locks
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// OpenSQLite opens a sqlite database at dsn and migrates it
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables and indexes
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entity.SubscriptionModel{},
		&entity.PreOrderModel{},
		&entity.WaitlistModel{},
		&entity.ShopModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// one pending signup per (shop, variant, email); notified rows may repeat
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_pending
		ON waitlist_entries (shop_domain, variant_id, email) WHERE notified = false`).Error; err != nil {
		return fmt.Errorf("failed to create waitlist index: %w", err)
	}
	return nil
}
