package models

import "time"

// TimestampModel carries the audit columns present on every table
type TimestampModel struct {
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
