package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig controls log export
type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	ServiceVersion    string
	Insecure          bool
}

// LoggerProvider owns the SDK logger provider while log export runs
type LoggerProvider struct {
	lifecycle
	provider *sdklog.LoggerProvider
	config   LogsConfig
}

// NewLoggerProvider installs a batching OTLP log pipeline as the global
// provider. Records reach it only through BridgeLogger.
func NewLoggerProvider(ctx context.Context, cfg LogsConfig, logger *zap.Logger) (*LoggerProvider, error) {
	lp := &LoggerProvider{lifecycle: newLifecycle("logs", logger), config: cfg}
	if !cfg.Enabled {
		lp.logger.Info("Log export disabled")
		return lp, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, err
	}

	lp.attach(sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	))
	global.SetLoggerProvider(lp.provider)

	lp.started(cfg.CollectorEndpoint)
	return lp, nil
}

// newLoggerProviderWithProcessor builds an enabled provider around
// processor without touching the global provider
func newLoggerProviderWithProcessor(cfg LogsConfig, processor sdklog.Processor) *LoggerProvider {
	cfg.Enabled = true
	lp := &LoggerProvider{lifecycle: newLifecycle("logs", nil), config: cfg}
	lp.attach(sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)))
	return lp
}

func (lp *LoggerProvider) attach(provider *sdklog.LoggerProvider) {
	lp.provider = provider
	lp.shutdown = provider.Shutdown
	lp.flush = provider.ForceFlush
}

func (lp *LoggerProvider) IsEnabled() bool {
	return lp.config.Enabled && lp.running()
}

func (lp *LoggerProvider) GetConfig() LogsConfig {
	return lp.config
}

// ZapBridgeConfig selects what BridgeLogger forwards
type ZapBridgeConfig struct {
	// ServiceName is the instrumentation scope of bridged records
	ServiceName    string
	LoggerProvider *LoggerProvider
	// Level is the lowest level forwarded
	Level zapcore.Level
}

// NewZapOTELCore returns a core writing into cfg.LoggerProvider, or a no-op
// core when the provider is missing or disabled
func NewZapOTELCore(cfg ZapBridgeConfig) zapcore.Core {
	if cfg.LoggerProvider == nil || !cfg.LoggerProvider.IsEnabled() {
		return zapcore.NewNopCore()
	}
	core := otelzap.NewCore(cfg.ServiceName, otelzap.WithLoggerProvider(cfg.LoggerProvider.provider))
	// otelzap forwards every level
	if cfg.Level == zapcore.DebugLevel {
		return core
	}
	return &levelFilterCore{Core: core, minLevel: cfg.Level}
}

// levelFilterCore drops entries below minLevel
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.minLevel && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return c.Core.Check(entry, ce)
	}
	return ce
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), minLevel: c.minLevel}
}

// BridgeLogger returns base with its output also teed into OpenTelemetry.
// The console and log file keep every entry base already writes. With a
// disabled provider base is returned as is.
func BridgeLogger(base *zap.Logger, cfg ZapBridgeConfig) *zap.Logger {
	if cfg.LoggerProvider == nil || !cfg.LoggerProvider.IsEnabled() {
		return base
	}
	otelCore := NewZapOTELCore(cfg)
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}
