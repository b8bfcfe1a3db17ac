package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"usermanager/internal/model"
)

const slowQueryThreshold = 200 * time.Millisecond

// NewMySQL returns a connected GORM DB instance. Driver errors are translated
// so unique violations surface as gorm.ErrDuplicatedKey.
func NewMySQL(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	db, err := Open(mysql.Open(dsn), log)
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// Open builds a GORM DB over any dialector with the service defaults applied.
func Open(dialector gorm.Dialector, log zerolog.Logger) (*gorm.DB, error) {
	gormLog := log.With().Str("component", "gorm").Logger()
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(&gormLog, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

// Migrate creates or updates the users table. With reset set the table is
// dropped first.
func Migrate(db *gorm.DB, reset bool, log zerolog.Logger) error {
	if reset {
		log.Warn().Msg("RESET_DB=true detected, dropping users table")
		if err := db.Migrator().DropTable(&model.User{}); err != nil {
			log.Warn().Err(err).Msg("failed to drop users table (may not exist)")
		}
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
