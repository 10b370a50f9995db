// Package testutil provides shared database plumbing for repository
// and service integration tests. TEST_POSTGRES_DSN selects a real
// postgres instance; without it tests run on an in-memory sqlite
// database, the same backend the engine supports for local
// development. Each test runs inside a transaction rolled back on
// cleanup so tests never leak rows.
package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/edustack/content-engine/internal/models"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error
)

// DB returns a shared migrated database handle: postgres when
// TEST_POSTGRES_DSN is set, in-memory sqlite otherwise.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		gormCfg := &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		}

		var err error
		if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
			db, err = gorm.Open(postgres.Open(dsn), gormCfg)
		} else {
			db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), gormCfg)
			if err == nil {
				// One connection keeps every session on the same
				// in-memory database.
				if sqlDB, dbErr2 := db.DB(); dbErr2 == nil {
					sqlDB.SetMaxOpenConns(1)
				}
			}
		}
		if err != nil {
			dbErr = err
			return
		}

		dbErr = autoMigrateAll(db)
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

// Tx begins a transaction rolled back when the test finishes.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Upload{},

		&models.Quiz{},
		&models.QuizQuestion{},
		&models.Exam{},
		&models.ExamQuestion{},

		&models.ConceptMap{},
		&models.ConceptNode{},
		&models.ConceptConnection{},
	)
}
