package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for MedBill.
// It tracks print dispatches, strategy fallbacks and catalog health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	printJobsTotal      *Counter
	printAttemptsTotal  *Counter
	catalogImportedRows *Counter

	// Histogram metrics
	printDispatchDuration *Histogram

	// Gauge metrics (point-in-time values)
	catalogActiveMedicines *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	catalogProvider CatalogMetricsProvider
}

// CatalogMetricsProvider provides catalog data for periodic metrics collection.
// This interface allows the telemetry layer to query the catalog without
// depending on the catalog domain directly.
type CatalogMetricsProvider interface {
	// GetActiveMedicineCount returns the number of sellable medicines
	GetActiveMedicineCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CatalogProvider CatalogMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		catalogProvider: cfg.CatalogProvider,
	}

	b := NewInstrumentSet(cfg.Meter)
	bm.printJobsTotal = b.Counter("medbill_print_jobs_total", "Print dispatches by outcome", "{jobs}")
	bm.printAttemptsTotal = b.Counter("medbill_print_strategy_attempts_total", "Print strategy attempts", "{attempts}")
	bm.printDispatchDuration = b.Histogram(HistogramOpts{
		Name:        "medbill_print_dispatch_duration_seconds",
		Description: "Time from dispatch start to the final print result",
		Unit:        "s",
		Boundaries:  PrintDurationBuckets,
	})
	bm.catalogImportedRows = b.Counter("medbill_catalog_imported_total", "Medicines imported from the bundled catalog", "{medicines}")
	bm.catalogActiveMedicines = b.Gauge("medbill_catalog_active_medicines", "Active medicines in the catalog", "{medicines}")
	if err := b.Err(); err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Print Metrics
// =============================================================================

// PrintOutcome labels the result of a dispatch or attempt.
type PrintOutcome string

const (
	PrintOutcomeSuccess PrintOutcome = "success"
	PrintOutcomeFailure PrintOutcome = "failure"
)

// RecordPrintDispatch records the final result of one dispatch. strategy is
// empty when no strategy succeeded; errorKind is empty on success.
func (bm *BusinessMetrics) RecordPrintDispatch(ctx context.Context, payloadKind, strategy, errorKind string, d time.Duration) {
	outcome := PrintOutcomeSuccess
	if errorKind != "" {
		outcome = PrintOutcomeFailure
	}

	attrs := []attribute.KeyValue{
		AttrPrintPayload.String(payloadKind),
		AttrPrintOutcome.String(string(outcome)),
	}
	if strategy != "" {
		attrs = append(attrs, AttrPrintStrategy.String(strategy))
	}
	if errorKind != "" {
		attrs = append(attrs, AttrPrintErrorKind.String(errorKind))
	}

	bm.printJobsTotal.Inc(ctx, attrs...)
	bm.printDispatchDuration.RecordDuration(ctx, d, attrs...)
}

// RecordPrintAttempt records one strategy attempt.
func (bm *BusinessMetrics) RecordPrintAttempt(ctx context.Context, strategy string, outcome PrintOutcome) {
	bm.printAttemptsTotal.Inc(ctx,
		AttrPrintStrategy.String(strategy),
		AttrPrintOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Catalog Metrics
// =============================================================================

// RecordCatalogImport records medicines copied from the bundled catalog.
func (bm *BusinessMetrics) RecordCatalogImport(ctx context.Context, rows int64) {
	if rows <= 0 {
		return
	}
	bm.catalogImportedRows.Add(ctx, rows)
}

// RecordActiveMedicines records the current number of active medicines.
func (bm *BusinessMetrics) RecordActiveMedicines(ctx context.Context, count int64) {
	bm.catalogActiveMedicines.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects catalog metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectCatalogMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectCatalogMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectCatalogMetrics(ctx context.Context) {
	if bm.catalogProvider == nil {
		bm.logger.Debug("No catalog provider configured, skipping catalog metrics collection")
		return
	}

	count, err := bm.catalogProvider.GetActiveMedicineCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count active medicines", zap.Error(err))
		return
	}
	bm.RecordActiveMedicines(ctx, count)
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
