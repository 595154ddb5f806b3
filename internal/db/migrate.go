package db

import (
	"figo_wallet/internal/domain" // Importing domain models
	"fmt"                         // Error wrapping

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM log levels
)

// Open connects to MySQL. SQL logging is silenced in production.
func Open(dsn string, isProd bool) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if isProd {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(mysql.Open(dsn), cfg) // Open a connection to the database
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB, log logrus.FieldLogger) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.Wallet{}, &domain.Transaction{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("Migration completed.") // Log successful migration
	return nil
}
