package localstore

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Credential is a persisted secret, stored encrypted. The session token lives
// here so a restart does not force a fresh login.
type Credential struct {
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"uniqueIndex;size:64"`
	Ciphertext string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Preference is a per-operator key/value setting (log page size and the like).
type Preference struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string
	UpdatedAt time.Time
}

// DB is the panel's local store connection. Assigned once by InitDB.
var DB *gorm.DB

// InitDB opens the local store and runs migrations. Call once at startup;
// the default is an on-disk sqlite file next to the binary, postgres is
// opt-in via PANEL_DB_DSN.
func InitDB() error {
	config := GetConfig()

	var dialector gorm.Dialector
	switch config.Driver {
	case "postgres":
		if config.PostgresDSN == "" {
			return fmt.Errorf("PANEL_DB_DSN is required for the postgres driver")
		}
		dialector = postgres.Open(config.PostgresDSN)
	case "sqlite":
		dialector = sqlite.Open(config.SQLitePath)
	default:
		return fmt.Errorf("unknown local store driver %q", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
	})
	if err != nil {
		logrus.WithError(err).Error("failed to open local store")
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("failed to get DB from GORM")
		return err
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if err := db.AutoMigrate(&Credential{}, &Preference{}); err != nil {
		logrus.WithError(err).Error("failed to migrate local store")
		return err
	}

	DB = db
	logrus.WithField("driver", config.Driver).Info("local store initialized")
	return nil
}
