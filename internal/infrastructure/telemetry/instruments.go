package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the print, catalog, database and HTTP metrics
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")
	AttrDBState     = attribute.Key("db.pool.state")

	AttrPrintStrategy  = attribute.Key("print.strategy")
	AttrPrintOutcome   = attribute.Key("print.outcome")
	AttrPrintErrorKind = attribute.Key("print.error_kind")
	AttrPrintPayload   = attribute.Key("print.payload_kind")
)

// Histogram bucket boundaries, in seconds
var (
	HTTPDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets    = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	SmallDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}

	// Engine renders launch a browser, so the tail is long
	PrintDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30}
)

// Counter counts jobs, attempts, queries and requests
type Counter struct {
	inst metric.Int64Counter
}

func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	inst, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{inst: inst}, nil
}

func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.inst.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, attrs...)
}

// Histogram records latencies
type Histogram struct {
	inst metric.Float64Histogram
}

// HistogramOpts describes a histogram. Empty Boundaries keep the SDK defaults.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	options := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(opts.Boundaries) > 0 {
		options = append(options, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}
	inst, err := meter.Float64Histogram(opts.Name, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", opts.Name, err)
	}
	return &Histogram{inst: inst}, nil
}

func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.inst.Record(ctx, v, metric.WithAttributes(attrs...))
}

// RecordDuration records d in seconds
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}

// Gauge reports a current count such as active medicines or open connections
type Gauge struct {
	inst metric.Int64Gauge
}

func NewGauge(meter metric.Meter, name, description, unit string) (*Gauge, error) {
	inst, err := meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge %s: %w", name, err)
	}
	return &Gauge{inst: inst}, nil
}

func (g *Gauge) Record(ctx context.Context, v int64, attrs ...attribute.KeyValue) {
	g.inst.Record(ctx, v, metric.WithAttributes(attrs...))
}

// FloatGauge reports a current ratio
type FloatGauge struct {
	inst metric.Float64Gauge
}

func NewFloatGauge(meter metric.Meter, name, description, unit string) (*FloatGauge, error) {
	inst, err := meter.Float64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create float gauge %s: %w", name, err)
	}
	return &FloatGauge{inst: inst}, nil
}

func (g *FloatGauge) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	g.inst.Record(ctx, v, metric.WithAttributes(attrs...))
}

// InstrumentSet creates a batch of instruments on one meter. After the
// first failure it returns nils and Err reports that failure.
//
//	b := telemetry.NewInstrumentSet(meter)
//	jobs := b.Counter("medbill_print_jobs_total", "Print dispatches", "{jobs}")
//	if err := b.Err(); err != nil { ... }
type InstrumentSet struct {
	meter metric.Meter
	err   error
}

func NewInstrumentSet(meter metric.Meter) *InstrumentSet {
	return &InstrumentSet{meter: meter}
}

func (b *InstrumentSet) Err() error {
	return b.err
}

func (b *InstrumentSet) Counter(name, description, unit string) *Counter {
	if b.err != nil {
		return nil
	}
	c, err := NewCounter(b.meter, name, description, unit)
	b.err = err
	return c
}

func (b *InstrumentSet) Gauge(name, description, unit string) *Gauge {
	if b.err != nil {
		return nil
	}
	g, err := NewGauge(b.meter, name, description, unit)
	b.err = err
	return g
}

func (b *InstrumentSet) FloatGauge(name, description, unit string) *FloatGauge {
	if b.err != nil {
		return nil
	}
	g, err := NewFloatGauge(b.meter, name, description, unit)
	b.err = err
	return g
}

func (b *InstrumentSet) Histogram(opts HistogramOpts) *Histogram {
	if b.err != nil {
		return nil
	}
	h, err := NewHistogram(b.meter, opts)
	b.err = err
	return h
}

// UpDownCounter tracks a value that rises and falls, such as in-flight requests
func (b *InstrumentSet) UpDownCounter(name, description, unit string) metric.Int64UpDownCounter {
	if b.err != nil {
		return nil
	}
	c, err := b.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		b.err = fmt.Errorf("failed to create up-down counter %s: %w", name, err)
	}
	return c
}
