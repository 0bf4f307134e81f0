package sqlite

import (
	"time"

	"casetrack/cmd/internal/domain/entity"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the database at path and migrates every table the service owns.
// Use ":memory:" for a throwaway database.
func Init(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer, every statement goes through one connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = db.AutoMigrate(
		&entity.User{},
		&entity.Connection{},
		&entity.CaseStatus{},
		&entity.Person{},
		&entity.CollectiveProcess{},
		&entity.IndividualProcess{},
		&entity.IndividualProcessStatus{},
		&entity.ActivityLog{},
		&entity.MigrationRecord{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
