package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memoryProcessor keeps every emitted record
type memoryProcessor struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (p *memoryProcessor) OnEmit(_ context.Context, r *sdklog.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, r.Clone())
	return nil
}

func (p *memoryProcessor) Enabled(context.Context, sdklog.EnabledParameters) bool { return true }
func (p *memoryProcessor) Shutdown(context.Context) error                         { return nil }
func (p *memoryProcessor) ForceFlush(context.Context) error                       { return nil }

func (p *memoryProcessor) bodies() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.records))
	for _, r := range p.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "medbill-backend",
	}

	lp, err := NewLoggerProvider(ctx, cfg, nil)
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.Equal(t, cfg, lp.GetConfig())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestNewZapOTELCore_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	for name, provider := range map[string]*LoggerProvider{"nil": nil, "disabled": lp} {
		t.Run(name, func(t *testing.T) {
			core := NewZapOTELCore(ZapBridgeConfig{LoggerProvider: provider})
			assert.False(t, core.Enabled(zapcore.ErrorLevel))
		})
	}
}

func TestBridgeLogger(t *testing.T) {
	processor := &memoryProcessor{}
	lp := newLoggerProviderWithProcessor(LogsConfig{ServiceName: "medbill-backend"}, processor)
	defer lp.Shutdown(context.Background())

	baseCore, recorded := observer.New(zapcore.DebugLevel)
	bridged := BridgeLogger(zap.New(baseCore), ZapBridgeConfig{
		ServiceName:    "medbill-backend",
		LoggerProvider: lp,
		Level:          zapcore.InfoLevel,
	})

	bridged.Debug("SQL Query")
	bridged.Info("Print job sent", zap.String("printer", "EPSON TM-T82"))
	bridged.Warn("Refusing virtual printer")

	// the original destination still sees everything
	assert.Equal(t, 3, recorded.Len())
	// OTEL only sees info and above
	assert.Equal(t, []string{"Print job sent", "Refusing virtual printer"}, processor.bodies())

	processor.mu.Lock()
	defer processor.mu.Unlock()
	assert.Equal(t, log.SeverityInfo, processor.records[0].Severity())
	var printer string
	processor.records[0].WalkAttributes(func(kv log.KeyValue) bool {
		if kv.Key == "printer" {
			printer = kv.Value.AsString()
		}
		return true
	})
	assert.Equal(t, "EPSON TM-T82", printer)
}

func TestBridgeLogger_DisabledReturnsBase(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, BridgeLogger(base, ZapBridgeConfig{}))
}

func TestNewZapOTELCore_DebugLevelIsUnfiltered(t *testing.T) {
	processor := &memoryProcessor{}
	lp := newLoggerProviderWithProcessor(LogsConfig{}, processor)
	defer lp.Shutdown(context.Background())

	core := NewZapOTELCore(ZapBridgeConfig{ServiceName: "medbill", LoggerProvider: lp, Level: zapcore.DebugLevel})
	_, filtered := core.(*levelFilterCore)
	assert.False(t, filtered)

	zap.New(core).Debug("debug line")
	assert.Equal(t, []string{"debug line"}, processor.bodies())
}

func TestLevelFilterCore_With(t *testing.T) {
	inner, recorded := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	child := core.With([]zapcore.Field{zap.String("strategy", "raw")})
	_, ok := child.(*levelFilterCore)
	require.True(t, ok)

	l := zap.New(child)
	l.Info("dropped")
	l.Error("kept")

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "raw", recorded.All()[0].ContextMap()["strategy"])
}
