package config

import (
	"fmt"

	"github.com/cenkalti/backoff"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"brigade_tracker/internal/logger"
	"brigade_tracker/internal/models"
)

const connectRetries = 4

// OpenDB connects to the configured store, retrying with exponential backoff
// while the database comes up.
func OpenDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dsn, err := cfg.DSN()
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Gorm(),
	}

	var db *gorm.DB
	attempt := 0
	connect := func() error {
		attempt++
		var err error
		db, err = gorm.Open(dialector, gormCfg)
		if err != nil {
			logrus.WithError(err).WithField("attempt", attempt).Warn("OpenDB: connection attempt failed")
		}
		return err
	}
	if err := backoff.Retry(connect, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries)); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logrus.WithField("driver", cfg.DBDriver).Info("OpenDB: connected")
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}
