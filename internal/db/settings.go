package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shareporter/shareporter/internal/conf"
	"github.com/shareporter/shareporter/internal/model"
)

// GetSettings returns all settings merged over the defaults, so callers
// always see a complete map even before the admin has saved anything.
func GetSettings() (map[string]string, error) {
	var items []model.SettingItem
	if err := db.Find(&items).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	values := conf.DefaultSettings()
	for i := range items {
		values[items[i].Key] = items[i].Value
	}
	return values, nil
}

// SaveSettings upserts the given keys in one transaction.
func SaveSettings(values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	return errors.WithStack(db.Transaction(func(tx *gorm.DB) error {
		for k, v := range values {
			item := model.SettingItem{Key: k, Value: v}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	}))
}

// Snapshot reads the settings and converts them to a typed snapshot for
// one reconcile pass.
func Snapshot() (conf.Snapshot, error) {
	values, err := GetSettings()
	if err != nil {
		return conf.Snapshot{}, err
	}
	return conf.BuildSnapshot(values), nil
}
