package models

import "time"

// AppSettingModel is one row of the app_settings key/value table
type AppSettingModel struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null;default:''"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AppSettingModel) TableName() string {
	return "app_settings"
}
