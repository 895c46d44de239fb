package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingRepository stores key/value settings in app_settings
type GormSettingRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormSettingRepository creates a new GormSettingRepository
func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db, now: time.Now}
}

// Get returns the value stored under key, or "" when the key is absent
func (r *GormSettingRepository) Get(ctx context.Context, key string) (string, error) {
	var model models.AppSettingModel
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return model.Value, nil
}

// Set stores value under key, replacing any previous value
func (r *GormSettingRepository) Set(ctx context.Context, key, value string) error {
	model := models.AppSettingModel{
		Key:       key,
		Value:     value,
		UpdatedAt: r.now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&model).Error
}

// Delete removes key. Deleting an absent key is not an error.
func (r *GormSettingRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.AppSettingModel{}).Error
}

// GetPreferredPrinter implements printing.PrinterSettingsRepository
func (r *GormSettingRepository) GetPreferredPrinter(ctx context.Context) (string, error) {
	return r.Get(ctx, printing.PreferredPrinterKey)
}

// SetPreferredPrinter implements printing.PrinterSettingsRepository. An
// empty name removes the setting.
func (r *GormSettingRepository) SetPreferredPrinter(ctx context.Context, name string) error {
	if name == "" {
		return r.Delete(ctx, printing.PreferredPrinterKey)
	}
	return r.Set(ctx, printing.PreferredPrinterKey, name)
}

var _ printing.PrinterSettingsRepository = (*GormSettingRepository)(nil)
