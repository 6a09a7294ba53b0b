package model

// SettingItem is one key/value row of the global settings table.
type SettingItem struct {
	Key   string `gorm:"column:key;primaryKey;size:64" json:"key"`
	Value string `gorm:"column:value;type:text" json:"value"`
}

func (SettingItem) TableName() string {
	return "settings"
}
