package telemetry

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// DefaultServiceVersion is reported when the build does not stamp one
const DefaultServiceVersion = "1.0.0"

// shutdownTimeout bounds the final export of each signal on exit
const shutdownTimeout = 10 * time.Second

// newResource describes this process to the collector. The OS type is
// included because print behavior depends on it.
func newResource(serviceName, serviceVersion string) (*resource.Resource, error) {
	if serviceVersion == "" {
		serviceVersion = DefaultServiceVersion
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
			semconv.OSTypeKey.String(runtime.GOOS),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// lifecycle is the flush and shutdown plumbing shared by the trace, metric
// and log providers. The zero value is a disabled signal.
type lifecycle struct {
	signal   string
	logger   *zap.Logger
	shutdown func(context.Context) error
	flush    func(context.Context) error
}

func newLifecycle(signal string, logger *zap.Logger) lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return lifecycle{signal: signal, logger: logger}
}

func (l *lifecycle) running() bool {
	return l.shutdown != nil
}

// started logs that the signal now exports to endpoint
func (l *lifecycle) started(endpoint string, fields ...zap.Field) {
	l.logger.Info("OpenTelemetry "+l.signal+" export started",
		append([]zap.Field{zap.String("collector_endpoint", endpoint)}, fields...)...)
}

// Shutdown flushes pending data and stops the exporter
func (l *lifecycle) Shutdown(ctx context.Context) error {
	if !l.running() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := l.shutdown(ctx); err != nil {
		l.logger.Error("OpenTelemetry "+l.signal+" shutdown failed", zap.Error(err))
		return fmt.Errorf("failed to shutdown %s provider: %w", l.signal, err)
	}
	l.logger.Info("OpenTelemetry " + l.signal + " export stopped")
	return nil
}

// ForceFlush exports everything buffered so far
func (l *lifecycle) ForceFlush(ctx context.Context) error {
	if !l.running() {
		return nil
	}
	return l.flush(ctx)
}
