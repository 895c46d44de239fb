// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: timestamp columns shared by every table
// - catalog.go: the medicines catalog
// - setting.go: the app_settings key/value table
//
// The schema itself is owned by the embedded migrations; models only map it.
package models
