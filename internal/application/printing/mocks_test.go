package printing_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/Mugunth140/medical-billing/internal/domain/printing"
	infra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockPrinterDirectory struct {
	mock.Mock
}

func (m *MockPrinterDirectory) ListPrinters(ctx context.Context) ([]domain.PrinterDescriptor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrinterDescriptor), args.Error(1)
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

type MockRenderEngine struct {
	mock.Mock
}

func (m *MockRenderEngine) Name() string {
	return "mock"
}

func (m *MockRenderEngine) Print(ctx context.Context, job infra.EngineJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockRenderEngine) Close() error {
	return nil
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

// panicEngine blows up inside Print
type panicEngine struct{}

func (panicEngine) Name() string { return "panic" }

func (panicEngine) Print(context.Context, infra.EngineJob) error {
	panic("renderer crashed")
}

func (panicEngine) Close() error { return nil }

// slowSpooler records how many sends overlap
type slowSpooler struct {
	mu       sync.Mutex
	inFlight int32
	maxSeen  int32
	texts    []string
	delay    time.Duration
}

func (s *slowSpooler) Send(_ context.Context, text, _ string) error {
	n := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)

	s.mu.Lock()
	if n > s.maxSeen {
		s.maxSeen = n
	}
	s.texts = append(s.texts, text)
	s.mu.Unlock()

	time.Sleep(s.delay)
	return nil
}

var (
	_ infra.PrinterDirectory           = (*MockPrinterDirectory)(nil)
	_ infra.RawSpooler                 = (*MockRawSpooler)(nil)
	_ infra.RenderEngine               = (*MockRenderEngine)(nil)
	_ infra.RenderEngine               = panicEngine{}
	_ domain.PrinterSettingsRepository = (*MockSettingsRepository)(nil)
)
