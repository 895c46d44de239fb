package handler

import (
	"context"

	"github.com/Mugunth140/medical-billing/internal/domain/catalog"
	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	infra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
)

type MockPrinterDirectory struct {
	mock.Mock
}

func (m *MockPrinterDirectory) ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]printing.PrinterDescriptor), args.Error(1)
}

func (m *MockPrinterDirectory) DefaultPrinter(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type MockRawSpooler struct {
	mock.Mock
}

func (m *MockRawSpooler) Send(ctx context.Context, text, printerName string) error {
	args := m.Called(ctx, text, printerName)
	return args.Error(0)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) GetPreferredPrinter(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsRepository) SetPreferredPrinter(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type MockMedicineRepository struct {
	mock.Mock
}

func (m *MockMedicineRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMedicineRepository) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMedicineRepository) ImportFromBundle(ctx context.Context, bundlePath string) (int64, error) {
	args := m.Called(ctx, bundlePath)
	return args.Get(0).(int64), args.Error(1)
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(context.Context) error {
	return p.err
}

var (
	_ infra.PrinterDirectory             = (*MockPrinterDirectory)(nil)
	_ infra.RawSpooler                   = (*MockRawSpooler)(nil)
	_ printing.PrinterSettingsRepository = (*MockSettingsRepository)(nil)
	_ catalog.MedicineRepository         = (*MockMedicineRepository)(nil)
	_ Pinger                             = fakePinger{}
)
