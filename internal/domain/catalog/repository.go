package catalog

import "context"

// MedicineRepository defines the interface for medicine persistence
type MedicineRepository interface {
	// CountAll returns the number of medicine rows, active or not
	CountAll(ctx context.Context) (int64, error)

	// CountActive returns the number of rows with is_active = 1
	CountActive(ctx context.Context) (int64, error)

	// ImportFromBundle copies every medicine from the SQLite file at
	// bundlePath into the live store and returns the number of rows copied
	ImportFromBundle(ctx context.Context, bundlePath string) (int64, error)
}
