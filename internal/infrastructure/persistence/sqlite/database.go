// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"
	"strings"

	gormModels "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDatabase opens the SQLite database and migrates the schema
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	dsn := dbPath
	if dsn == "" {
		dsn = ":memory:"
	}
	if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)

	if err := gormModels.AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}
