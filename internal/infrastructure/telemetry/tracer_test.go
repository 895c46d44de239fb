package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/Mugunth140/medical-billing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.Config{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		SamplingRatio:     1.0,
		ServiceName:       "medbill-backend",
	}

	tp, err := telemetry.NewTracerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.Equal(t, cfg, tp.GetConfig())
	assert.NotNil(t, tp.Tracer("medbill"))
	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestNewTracerProvider_Enabled(t *testing.T) {
	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	tests := []struct {
		name        string
		ratio       float64
		wantSampled bool
	}{
		{"always", 1.0, true},
		{"never", 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
				Enabled:           true,
				CollectorEndpoint: "localhost:4317",
				SamplingRatio:     tt.ratio,
				ServiceName:       "medbill-backend",
				ServiceVersion:    "0.3.1",
				Insecure:          true,
			}, nil)
			require.NoError(t, err)
			assert.True(t, tp.IsEnabled())

			_, span := tp.Tracer("medbill").Start(context.Background(), "print.silent_print")
			assert.Equal(t, tt.wantSampled, span.SpanContext().IsSampled())
			span.End()

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		})
	}
}
