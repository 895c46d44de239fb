package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mugunth140/medical-billing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeCatalogProvider struct {
	count int64
	err   error
	calls atomic.Int32
}

func (f *fakeCatalogProvider) GetActiveMedicineCount(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return f.count, f.err
}

func newTestBusinessMetrics(t *testing.T, provider telemetry.CatalogMetricsProvider) (*telemetry.BusinessMetrics, func(string) (metricdata.Metrics, bool)) {
	t.Helper()
	meter, reader := newTestMeter(t)
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           meter,
		CatalogProvider: provider,
	})
	require.NoError(t, err)
	t.Cleanup(bm.Stop)
	return bm, func(name string) (metricdata.Metrics, bool) { return findMetric(t, reader, name) }
}

func TestNewBusinessMetrics(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: noop.NewMeterProvider().Meter("test"),
	})
	require.NoError(t, err)
	assert.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{})

	assert.Nil(t, bm)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_RecordPrintDispatch(t *testing.T) {
	bm, collect := newTestBusinessMetrics(t, nil)
	ctx := context.Background()

	bm.RecordPrintDispatch(ctx, "markup", "engine", "", 800*time.Millisecond)
	bm.RecordPrintDispatch(ctx, "markup", "raw", "", 200*time.Millisecond)
	bm.RecordPrintDispatch(ctx, "text", "", "NoDefaultPrinter", time.Millisecond)

	jobs, ok := collect("medbill_print_jobs_total")
	require.True(t, ok)
	assert.Equal(t, int64(3), sumValue(t, jobs))
	assert.Equal(t, int64(2), sumValue(t, jobs, telemetry.AttrPrintOutcome.String("success")))
	assert.Equal(t, int64(1), sumValue(t, jobs,
		telemetry.AttrPrintOutcome.String("failure"),
		telemetry.AttrPrintErrorKind.String("NoDefaultPrinter"),
	))
	assert.Equal(t, int64(1), sumValue(t, jobs, telemetry.AttrPrintStrategy.String("raw")))

	duration, ok := collect("medbill_print_dispatch_duration_seconds")
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestBusinessMetrics_RecordPrintAttempt(t *testing.T) {
	bm, collect := newTestBusinessMetrics(t, nil)
	ctx := context.Background()

	bm.RecordPrintAttempt(ctx, "engine", telemetry.PrintOutcomeFailure)
	bm.RecordPrintAttempt(ctx, "raw", telemetry.PrintOutcomeSuccess)

	attempts, ok := collect("medbill_print_strategy_attempts_total")
	require.True(t, ok)
	assert.Equal(t, int64(1), sumValue(t, attempts,
		telemetry.AttrPrintStrategy.String("engine"),
		telemetry.AttrPrintOutcome.String("failure"),
	))
	assert.Equal(t, int64(2), sumValue(t, attempts))
}

func TestBusinessMetrics_RecordCatalogImport(t *testing.T) {
	bm, collect := newTestBusinessMetrics(t, nil)
	ctx := context.Background()

	bm.RecordCatalogImport(ctx, 0)
	bm.RecordCatalogImport(ctx, -1)
	bm.RecordCatalogImport(ctx, 12000)

	imported, ok := collect("medbill_catalog_imported_total")
	require.True(t, ok)
	assert.Equal(t, int64(12000), sumValue(t, imported))
}

func activeMedicinesValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	return gauge.DataPoints[0].Value
}

func TestBusinessMetrics_RecordActiveMedicines(t *testing.T) {
	bm, collect := newTestBusinessMetrics(t, nil)

	bm.RecordActiveMedicines(context.Background(), 10)
	bm.RecordActiveMedicines(context.Background(), 9)

	m, ok := collect("medbill_catalog_active_medicines")
	require.True(t, ok)
	assert.Equal(t, int64(9), activeMedicinesValue(t, m))
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	provider := &fakeCatalogProvider{count: 4321}
	bm, collect := newTestBusinessMetrics(t, provider)

	bm.StartPeriodicCollection(context.Background(), time.Hour)

	// the first collection runs immediately
	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := collect("medbill_catalog_active_medicines")
		return ok
	}, time.Second, 5*time.Millisecond)

	m, _ := collect("medbill_catalog_active_medicines")
	assert.Equal(t, int64(4321), activeMedicinesValue(t, m))
}

func TestBusinessMetrics_PeriodicCollection_ProviderError(t *testing.T) {
	provider := &fakeCatalogProvider{err: errors.New("database is locked")}
	bm, collect := newTestBusinessMetrics(t, provider)

	bm.StartPeriodicCollection(context.Background(), time.Hour)
	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	_, ok := collect("medbill_catalog_active_medicines")
	assert.False(t, ok)
}

func TestBusinessMetrics_PeriodicCollection_NoProvider(t *testing.T) {
	bm, _ := newTestBusinessMetrics(t, nil)

	assert.NotPanics(t, func() {
		bm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
	})
}

func TestBusinessMetrics_StartPeriodicCollection_OnlyOnce(t *testing.T) {
	provider := &fakeCatalogProvider{count: 1}
	bm, _ := newTestBusinessMetrics(t, provider)

	bm.StartPeriodicCollection(context.Background(), time.Hour)
	bm.StartPeriodicCollection(context.Background(), time.Hour)

	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestBusinessMetrics_StopOnContextCancel(t *testing.T) {
	provider := &fakeCatalogProvider{count: 1}
	bm, _ := newTestBusinessMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	bm.StartPeriodicCollection(ctx, 5*time.Millisecond)
	require.Eventually(t, func() bool { return provider.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	time.Sleep(20 * time.Millisecond)
	calls := provider.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, provider.calls.Load())
}

func TestBusinessMetrics_Stop_Idempotent(t *testing.T) {
	bm, _ := newTestBusinessMetrics(t, nil)

	assert.NotPanics(t, func() {
		bm.Stop()
		bm.Stop()
	})
}
