package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Mugunth140/medical-billing/internal/domain/catalog"
	"github.com/Mugunth140/medical-billing/internal/domain/shared"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MedicineService handles medicine catalog operations
type MedicineService struct {
	medicineRepo catalog.MedicineRepository
	bundlePath   string
	metrics      *telemetry.BusinessMetrics
	logger       *zap.Logger
}

// NewMedicineService creates a new MedicineService. bundlePath points at the
// SQLite catalog shipped with the installer.
func NewMedicineService(medicineRepo catalog.MedicineRepository, bundlePath string, logger *zap.Logger) *MedicineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicineService{
		medicineRepo: medicineRepo,
		bundlePath:   bundlePath,
		logger:       logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *MedicineService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.metrics = bm
}

// BundlePath returns the configured bundle location
func (s *MedicineService) BundlePath() string {
	return s.bundlePath
}

// ImportBundledMedicines seeds an empty catalog from the bundle. When the
// catalog already has rows nothing is imported and the existing row count is
// returned, so calling it on every start is safe.
func (s *MedicineService) ImportBundledMedicines(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "medicine", "import_bundled")
	defer span.End()

	if s.bundlePath == "" {
		return 0, shared.NewDomainError("NOT_FOUND", "Medicines bundle path is not configured")
	}
	if _, err := os.Stat(s.bundlePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Medicines bundle not found at %s", s.bundlePath))
		}
		return 0, fmt.Errorf("failed to stat medicines bundle: %w", err)
	}

	existing, err := s.medicineRepo.CountAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to count medicines: %w", err)
	}
	if existing > 0 {
		s.logger.Info("Medicines already present, skipping bundle import",
			zap.Int64("count", existing))
		return existing, nil
	}

	imported, err := s.medicineRepo.ImportFromBundle(ctx, s.bundlePath)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("failed to import medicines bundle: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordCatalogImport(ctx, imported)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrImportedRows, imported)
	telemetry.SetOK(span)

	s.logger.Info("Imported bundled medicines",
		zap.String("bundle", s.bundlePath),
		zap.Int64("count", imported))

	return imported, nil
}

// GetMedicinesCount returns the number of active medicines
func (s *MedicineService) GetMedicinesCount(ctx context.Context) (int64, error) {
	count, err := s.medicineRepo.CountActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active medicines: %w", err)
	}
	return count, nil
}

// GetActiveMedicineCount implements telemetry.CatalogMetricsProvider
func (s *MedicineService) GetActiveMedicineCount(ctx context.Context) (int64, error) {
	return s.GetMedicinesCount(ctx)
}

var _ telemetry.CatalogMetricsProvider = (*MedicineService)(nil)
