package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// contextWithValidSpan returns a context carrying a sampled remote span context
func contextWithValidSpan(t *testing.T) (context.Context, trace.SpanContext) {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc), sc
}

func TestFromContext(t *testing.T) {
	base := zap.NewExample()

	assert.Same(t, base, FromContext(WithContext(context.Background(), base)))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
	assert.NotNil(t, FromContext(ctx))
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithRequestID(context.Background(), zap.New(core), "req-42")
	enriched.Info("handled")

	assert.Equal(t, "req-42", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-42", recorded.All()[0].ContextMap()["request_id"])
}

func TestWithPrinter(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, enriched := WithPrinter(context.Background(), zap.New(core), "EPSON TM-T82")
	enriched.Info("dispatching")

	assert.Equal(t, "EPSON TM-T82", GetPrinter(ctx))
	assert.Equal(t, "EPSON TM-T82", recorded.All()[0].ContextMap()["printer"])
}

func TestContextValues_Absent(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetPrinter(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func TestTraceIDs(t *testing.T) {
	ctx, sc := contextWithValidSpan(t)

	assert.Equal(t, sc.TraceID().String(), GetTraceID(ctx))
	assert.Equal(t, sc.SpanID().String(), GetSpanID(ctx))
}

func TestWithTraceContext(t *testing.T) {
	t.Run("without span returns the same logger", func(t *testing.T) {
		base := zap.NewNop()
		assert.Same(t, base, WithTraceContext(context.Background(), base))
	})

	t.Run("with span adds ids", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx, sc := contextWithValidSpan(t)

		WithTraceContext(ctx, zap.New(core)).Info("traced")

		fields := recorded.All()[0].ContextMap()
		assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
		assert.Equal(t, sc.SpanID().String(), fields["span_id"])
	})
}

func TestContextLogger_EnrichesEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx, sc := contextWithValidSpan(t)
	ctx = WithContext(ctx, zap.New(core))
	ctx = context.WithValue(ctx, RequestIDKey, "req-7")
	ctx = context.WithValue(ctx, PrinterKey, "TVS RP3160")

	cl := L(ctx)
	cl.Debug("debug")
	cl.Info("info")
	cl.Warn("warn")
	cl.Error("error")

	entries := recorded.All()
	require.Len(t, entries, 4)
	for _, entry := range entries {
		fields := entry.ContextMap()
		assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
		assert.Equal(t, "req-7", fields["request_id"])
		assert.Equal(t, "TVS RP3160", fields["printer"])
	}
}

func TestContextLogger_With(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	WithLogger(context.Background(), zap.New(core)).
		With(zap.String("strategy", "raw")).
		Info("sent")

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "raw", fields["strategy"])
	assert.NotContains(t, fields, "request_id")
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)

	assert.NotPanics(t, func() {
		cl.Info("dropped")
		cl.With(zap.Int("n", 1)).Warn("dropped")
	})
	assert.NotNil(t, cl.Zap())
}
