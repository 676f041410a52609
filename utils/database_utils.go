// database_utils should be the canonical place to put shared DB utils.
// It should not include:
// 1. Any util that doesn't manipulate DB
// 2. Any util that contains business logic
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Luismorlan/feedsim/model"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testDBFileName = "feedsim_test.db"
)

// GetDBConnection get a connection to the database specified by env
func GetDBConnection() (*gorm.DB, error) {
	return GetCustomizedConnection(os.Getenv("DB_NAME"))
}

// GetCustomizedConnection connect to any postgres db on the configured host
func GetCustomizedConnection(dbName string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), dbName, os.Getenv("DB_PORT"))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fail to connect to db %s", dbName)
	}
	return db, nil
}

// CreateTempDB creates a migrated, file backed sqlite DB for testing. Note
// that this function should only be called in a testing environment with test
// state manager testing.T. The DB lives under t.TempDir(), so it is removed
// together with the directory after each test case, user will not need to
// drop the database explicitly.
func CreateTempDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), testDBFileName)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("fail to create temp DB at %s: %v", path, err)
	}
	if err := DatabaseSetupAndMigration(db); err != nil {
		t.Fatalf("fail to migrate temp DB: %v", err)
	}
	t.Cleanup(func() {
		// Proactively close the connection instead of deferring to GC, the
		// temp dir can't be removed on some platforms while the file is open.
		if conn, err := db.DB(); err == nil {
			conn.Close()
		}
	})
	return db
}

// DatabaseSetupAndMigration creates or updates every table of the event store.
func DatabaseSetupAndMigration(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.Follow{},
		&model.Reaction{},
		&model.Interest{},
		&model.UserInterest{},
		&model.PostTopic{},
		&model.Round{},
		&model.Recommendation{},
		&model.Hashtag{},
		&model.PostHashtag{},
		&model.Mention{},
		&model.Website{},
		&model.Article{},
		&model.ArticleTopic{},
	)
	return errors.Wrap(err, "fail to migrate event store")
}
