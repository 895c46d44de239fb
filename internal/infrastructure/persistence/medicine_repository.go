package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mugunth140/medical-billing/internal/domain/catalog"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// bundleAlias is the schema name the bundled catalog is attached under
const bundleAlias = "bundle"

// GormMedicineRepository implements MedicineRepository using GORM
type GormMedicineRepository struct {
	db *gorm.DB
}

// NewGormMedicineRepository creates a new GormMedicineRepository
func NewGormMedicineRepository(db *gorm.DB) *GormMedicineRepository {
	return &GormMedicineRepository{db: db}
}

// CountAll returns the number of medicine rows. A store without the
// medicines table counts as empty.
func (r *GormMedicineRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MedicineModel{}).Count(&count).Error
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// CountActive returns the number of active medicines. A store without the
// medicines table counts as empty.
func (r *GormMedicineRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MedicineModel{}).
		Where("is_active = ?", true).
		Count(&count).Error
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

// ImportFromBundle copies every row of bundle.medicines into medicines.
// ATTACH is scoped to a connection, so the three statements run on one
// pinned connection from the pool.
func (r *GormMedicineRepository) ImportFromBundle(ctx context.Context, bundlePath string) (int64, error) {
	var imported int64

	err := r.db.WithContext(ctx).Connection(func(conn *gorm.DB) (err error) {
		if err := conn.Exec("ATTACH DATABASE ? AS "+bundleAlias, bundlePath).Error; err != nil {
			return fmt.Errorf("failed to attach bundle database: %w", err)
		}
		defer func() {
			if detachErr := conn.Exec("DETACH DATABASE " + bundleAlias).Error; detachErr != nil && err == nil {
				err = fmt.Errorf("failed to detach bundle: %w", detachErr)
			}
		}()

		result := conn.Exec(bundleInsertSQL())
		if result.Error != nil {
			return fmt.Errorf("failed to import medicines: %w", result.Error)
		}
		imported = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	return imported, nil
}

func bundleInsertSQL() string {
	cols := strings.Join(catalog.BundleImportColumns, ", ")
	return "INSERT INTO medicines (" + cols + ") SELECT " + cols + " FROM " + bundleAlias + ".medicines"
}

// isMissingTable reports whether err is SQLite's "no such table" failure
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

var _ catalog.MedicineRepository = (*GormMedicineRepository)(nil)
