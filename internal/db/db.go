package db

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shareporter/shareporter/internal/model"
)

var db *gorm.DB

// Init opens the sqlite database and migrates the schema. The busy timeout
// plus gorm's connection serialization keep per-row read-modify-write
// atomic with respect to other writers.
func Init(dbFile string) error {
	if dir := filepath.Dir(dbFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create data dir %s", dir)
		}
	}
	dsn := dbFile + "?_busy_timeout=5000&_journal_mode=WAL"
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	sqlDB, err := d.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db = d
	return errors.Wrap(AutoMigrate(), "failed to migrate database")
}

func AutoMigrate() error {
	return db.AutoMigrate(&model.Task{}, &model.TaskLog{}, &model.SettingItem{})
}

// Close releases the underlying connection. Used on shutdown and in tests.
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(sqlDB.Close())
}
