package printing_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Mugunth140/medical-billing/internal/application/printing"
	domain "github.com/Mugunth140/medical-billing/internal/domain/printing"
	infra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const receiptPadding = "\n\n\n\n\f"

type dispatcherFixture struct {
	directory *MockPrinterDirectory
	engine    *MockRenderEngine
	spooler   *MockRawSpooler
	jobFile   *infra.JobFile
	dispatch  *printing.Dispatcher
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	f := &dispatcherFixture{
		directory: new(MockPrinterDirectory),
		engine:    new(MockRenderEngine),
		spooler:   new(MockRawSpooler),
		jobFile:   infra.NewJobFile(t.TempDir(), "", nil),
	}
	f.dispatch = printing.NewDispatcher(
		f.directory,
		domain.NewVirtualPrinterGuard(nil),
		[]printing.Strategy{
			printing.NewEngineStrategy(f.engine, f.jobFile, time.Second),
			printing.NewRawTextStrategy(f.spooler, nil),
		},
		zap.NewNop(),
	)
	return f
}

func newJob(t *testing.T, payload string, kind domain.PayloadKind, target string) *domain.PrintJob {
	t.Helper()
	job, err := domain.NewPrintJob(payload, kind, target)
	require.NoError(t, err)
	return job
}

func TestDispatcher_EngineSucceeds(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("EPSON TM-T82", nil)
	f.engine.On("Print", mock.Anything, mock.MatchedBy(func(job infra.EngineJob) bool {
		content, err := os.ReadFile(job.File)
		return err == nil && string(content) == "<p>bill</p>" && job.Printer == "EPSON TM-T82" && !job.Explicit
	})).Return(nil)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "<p>bill</p>", domain.PayloadMarkup, ""))

	require.True(t, result.IsSuccess())
	assert.Equal(t, domain.StrategyEngine, result.Strategy)
	assert.Equal(t, "EPSON TM-T82", result.PrinterName)
	assert.Contains(t, result.Message, "EPSON TM-T82")
	f.spooler.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)

	_, err := os.Stat(f.jobFile.Path())
	assert.True(t, os.IsNotExist(err), "job file should be removed after printing")
}

func TestDispatcher_FallsBackToRawText(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
	f.engine.On("Print", mock.Anything, mock.Anything).
		Return(domain.NewPrintError(domain.KindEngineUnavailable, "no browser", nil))
	f.spooler.On("Send", mock.Anything, "TOTAL: 100"+receiptPadding, "TVS MSP 250").Return(nil)

	result := f.dispatch.Dispatch(context.Background(),
		newJob(t, "<html><body><pre>TOTAL: 100</pre></body></html>", domain.PayloadMarkup, ""))

	require.True(t, result.IsSuccess())
	assert.Equal(t, domain.StrategyRaw, result.Strategy)
	assert.Equal(t, "TVS MSP 250", result.PrinterName)
	f.engine.AssertNumberOfCalls(t, "Print", 1)
	f.spooler.AssertExpectations(t)
}

func TestDispatcher_RefusesVirtualPrinter(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("Microsoft Print to PDF", nil)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "<p>x</p>", domain.PayloadMarkup, ""))

	require.False(t, result.IsSuccess())
	assert.True(t, errors.Is(result.Err(), domain.ErrUnsuitablePrinter))
	f.engine.AssertNotCalled(t, "Print", mock.Anything, mock.Anything)
	f.spooler.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_RefusesExplicitVirtualPrinter(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "hello", domain.PayloadText, "OneNote (Desktop)"))

	assert.True(t, domain.IsKind(result.Err(), domain.KindUnsuitablePrinter))
	f.spooler.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_NoDefaultPrinter(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("", domain.ErrNoDefaultPrinter)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "<p>x</p>", domain.PayloadMarkup, ""))

	require.False(t, result.IsSuccess())
	assert.True(t, domain.IsKind(result.Err(), domain.KindNoDefaultPrinter))
	f.engine.AssertNotCalled(t, "Print", mock.Anything, mock.Anything)

	_, err := os.Stat(f.jobFile.Path())
	assert.True(t, os.IsNotExist(err), "no job file should be written")
}

func TestDispatcher_BlankDefaultPrinter(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("   ", nil)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "text", domain.PayloadText, ""))

	assert.True(t, domain.IsKind(result.Err(), domain.KindNoDefaultPrinter))
}

func TestDispatcher_ExplicitTargetMatchingDefault(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
	f.engine.On("Print", mock.Anything, mock.MatchedBy(func(job infra.EngineJob) bool {
		return job.Printer == "tvs msp 250" && !job.Explicit
	})).Return(nil)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "<p>x</p>", domain.PayloadMarkup, "tvs msp 250"))

	require.True(t, result.IsSuccess())
	f.engine.AssertExpectations(t)
}

func TestDispatcher_ExplicitTargetWithoutDefault(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("", domain.ErrNoDefaultPrinter)
	f.spooler.On("Send", mock.Anything, "hello", "Counter 2").Return(nil)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "hello", domain.PayloadText, "Counter 2"))

	require.True(t, result.IsSuccess())
	assert.Equal(t, "Counter 2", result.PrinterName)
}

func TestDispatcher_TextSkipsEngine(t *testing.T) {
	f := newDispatcherFixture(t)
	f.directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
	f.spooler.On("Send", mock.Anything, "<b>not markup</b>", "TVS MSP 250").Return(nil)

	result := f.dispatch.Dispatch(context.Background(), newJob(t, "<b>not markup</b>", domain.PayloadText, ""))

	require.True(t, result.IsSuccess())
	assert.Equal(t, domain.StrategyRaw, result.Strategy)
	f.engine.AssertNotCalled(t, "Print", mock.Anything, mock.Anything)
}

func TestDispatcher_AggregatesFailures(t *testing.T) {
	t.Run("spool rejection wins", func(t *testing.T) {
		f := newDispatcherFixture(t)
		f.directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
		f.engine.On("Print", mock.Anything, mock.Anything).
			Return(domain.NewPrintError(domain.KindEngineTimeout, "page never finished", nil))
		f.spooler.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.NewPrintError(domain.KindSpoolRejected, "printer offline", nil))

		result := f.dispatch.Dispatch(context.Background(), newJob(t, "<p>x</p>", domain.PayloadMarkup, ""))

		require.False(t, result.IsSuccess())
		assert.Equal(t, domain.KindSpoolRejected, result.Reason.Kind)
		assert.Contains(t, result.Reason.Detail, "engine: page never finished")
		assert.Contains(t, result.Reason.Detail, "raw: printer offline")
		assert.True(t, errors.Is(result.Err(), domain.ErrEngineTimeout))
	})

	t.Run("last failure kind otherwise", func(t *testing.T) {
		f := newDispatcherFixture(t)
		f.directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
		f.engine.On("Print", mock.Anything, mock.Anything).
			Return(domain.NewPrintError(domain.KindEngineUnavailable, "no browser", nil))
		f.spooler.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Return(domain.NewPrintError(domain.KindPlatformUnsupported, "linux", nil))

		result := f.dispatch.Dispatch(context.Background(), newJob(t, "<p>x</p>", domain.PayloadMarkup, ""))

		assert.Equal(t, domain.KindPlatformUnsupported, result.Reason.Kind)
	})

	t.Run("foreign errors take the strategy kind", func(t *testing.T) {
		f := newDispatcherFixture(t)
		f.directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
		f.spooler.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("pipe closed"))

		result := f.dispatch.Dispatch(context.Background(), newJob(t, "hi", domain.PayloadText, ""))

		assert.Equal(t, domain.KindSpoolRejected, result.Reason.Kind)
		assert.Contains(t, result.Reason.Error(), "pipe closed")
	})
}

func TestDispatcher_NoApplicableStrategy(t *testing.T) {
	directory := new(MockPrinterDirectory)
	directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
	engine := new(MockRenderEngine)
	d := printing.NewDispatcher(directory, nil, []printing.Strategy{
		printing.NewEngineStrategy(engine, infra.NewJobFile(t.TempDir(), "", nil), time.Second),
	}, nil)

	result := d.Dispatch(context.Background(), newJob(t, "hi", domain.PayloadText, ""))

	assert.Equal(t, domain.KindEngineUnavailable, result.Reason.Kind)
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	directory := new(MockPrinterDirectory)
	directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
	spooler := new(MockRawSpooler)
	spooler.On("Send", mock.Anything, mock.Anything, "TVS MSP 250").Return(nil)

	d := printing.NewDispatcher(directory, nil, []printing.Strategy{
		printing.NewEngineStrategy(panicEngine{}, infra.NewJobFile(t.TempDir(), "", nil), time.Second),
		printing.NewRawTextStrategy(spooler, nil),
	}, zap.NewNop())

	var result domain.PrintResult
	require.NotPanics(t, func() {
		result = d.Dispatch(context.Background(), newJob(t, "<p>ok</p>", domain.PayloadMarkup, ""))
	})

	require.True(t, result.IsSuccess())
	assert.Equal(t, domain.StrategyRaw, result.Strategy)
}

func TestDispatcher_PanicOnlyStrategy(t *testing.T) {
	directory := new(MockPrinterDirectory)
	directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)

	d := printing.NewDispatcher(directory, nil, []printing.Strategy{
		printing.NewEngineStrategy(panicEngine{}, infra.NewJobFile(t.TempDir(), "", nil), time.Second),
	}, nil)

	result := d.Dispatch(context.Background(), newJob(t, "<p>ok</p>", domain.PayloadMarkup, ""))

	require.False(t, result.IsSuccess())
	assert.Equal(t, domain.KindEngineUnavailable, result.Reason.Kind)
	assert.Contains(t, result.Reason.Detail, "renderer crashed")
}

func TestDispatcher_TempFileFailure(t *testing.T) {
	directory := new(MockPrinterDirectory)
	directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
	engine := new(MockRenderEngine)
	spooler := new(MockRawSpooler)
	spooler.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.NewPrintError(domain.KindPlatformUnsupported, "", nil))

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	d := printing.NewDispatcher(directory, nil, []printing.Strategy{
		printing.NewEngineStrategy(engine, infra.NewJobFile(missing, "", nil), time.Second),
		printing.NewRawTextStrategy(spooler, nil),
	}, nil)

	result := d.Dispatch(context.Background(), newJob(t, "<p>x</p>", domain.PayloadMarkup, ""))

	require.False(t, result.IsSuccess())
	assert.True(t, errors.Is(result.Err(), domain.ErrTempFileIO))
	engine.AssertNotCalled(t, "Print", mock.Anything, mock.Anything)
}

func TestDispatcher_SerializesJobs(t *testing.T) {
	directory := new(MockPrinterDirectory)
	directory.On("DefaultPrinter", mock.Anything).Return("TVS MSP 250", nil)
	spooler := &slowSpooler{delay: 20 * time.Millisecond}

	d := printing.NewDispatcher(directory, nil, []printing.Strategy{
		printing.NewRawTextStrategy(spooler, nil),
	}, nil)

	const jobs = 5
	var wg sync.WaitGroup
	results := make([]domain.PrintResult, jobs)
	for i := 0; i < jobs; i++ {
		job := newJob(t, "receipt", domain.PayloadText, "")
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = d.Dispatch(context.Background(), job)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.IsSuccess())
	}
	assert.Equal(t, int32(1), spooler.maxSeen)
	assert.Len(t, spooler.texts, jobs)
}

func TestDispatcher_Strategies(t *testing.T) {
	f := newDispatcherFixture(t)
	assert.Equal(t, []domain.StrategyName{domain.StrategyEngine, domain.StrategyRaw}, f.dispatch.Strategies())
}
