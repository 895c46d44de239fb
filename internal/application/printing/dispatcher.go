package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	infra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Dispatcher runs print jobs through an ordered strategy chain. Only one job
// is dispatched at a time because every engine shares the job file and the
// OS default printer.
type Dispatcher struct {
	mu         sync.Mutex
	directory  infra.PrinterDirectory
	guard      *printing.VirtualPrinterGuard
	strategies []Strategy
	metrics    *telemetry.BusinessMetrics
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher. Strategies are tried in the given order.
func NewDispatcher(
	directory infra.PrinterDirectory,
	guard *printing.VirtualPrinterGuard,
	strategies []Strategy,
	logger *zap.Logger,
) *Dispatcher {
	if guard == nil {
		guard = printing.NewVirtualPrinterGuard(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		directory:  directory,
		guard:      guard,
		strategies: strategies,
		logger:     logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (d *Dispatcher) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	d.metrics = bm
}

// Strategies returns the names of the configured strategies in order
func (d *Dispatcher) Strategies() []printing.StrategyName {
	names := make([]printing.StrategyName, 0, len(d.strategies))
	for _, s := range d.strategies {
		names = append(names, s.Name())
	}
	return names
}

type strategyFailure struct {
	strategy printing.StrategyName
	err      *printing.PrintError
}

// Dispatch prints job and never panics. The result is a Success from the
// first strategy that works or a Failure aggregating every attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, job *printing.PrintJob) printing.PrintResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "print_dispatcher", "dispatch",
		telemetry.WithPrintJob(job.ID.String(), job.PayloadKind.String()))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	startTime := time.Now()
	result := d.dispatch(ctx, job)

	if result.IsSuccess() {
		telemetry.SetAttributes(span,
			telemetry.SpanAttrPrinter, result.PrinterName,
			telemetry.SpanAttrStrategy, result.Strategy.String(),
		)
		telemetry.SetOK(span)
		d.recordDispatch(ctx, job, result.Strategy.String(), "", time.Since(startTime))
	} else {
		telemetry.RecordError(span, result.Reason)
		d.recordDispatch(ctx, job, "", result.Reason.Kind.String(), time.Since(startTime))
	}

	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, job *printing.PrintJob) printing.PrintResult {
	target, err := d.resolveTarget(ctx, job)
	if err != nil {
		return printing.Failed(asPrintError(err, printing.KindNoDefaultPrinter))
	}

	if err := d.guard.Check(target.Name); err != nil {
		d.logger.Warn("Refusing virtual printer", zap.String("printer", target.Name))
		return printing.Failed(asPrintError(err, printing.KindUnsuitablePrinter))
	}

	var failures []strategyFailure
	for _, strategy := range d.strategies {
		if !strategy.Applies(job) {
			continue
		}

		err := d.execute(ctx, strategy, job, target)
		if err == nil {
			d.recordAttempt(ctx, strategy.Name(), telemetry.PrintOutcomeSuccess)
			d.logger.Info("Print job sent",
				zap.String("job_id", job.ID.String()),
				zap.String("printer", target.Name),
				zap.String("strategy", strategy.Name().String()),
				zap.Int("failed_attempts", len(failures)))
			return printing.Succeeded(
				fmt.Sprintf("Print job sent to %s (%s)", target.Name, strategy.Name()),
				target.Name,
				strategy.Name(),
			)
		}

		d.recordAttempt(ctx, strategy.Name(), telemetry.PrintOutcomeFailure)
		pe := asPrintError(err, strategy.FailureKind())
		d.logger.Warn("Print strategy failed",
			zap.String("job_id", job.ID.String()),
			zap.String("strategy", strategy.Name().String()),
			zap.String("kind", pe.Kind.String()),
			zap.Error(pe))
		failures = append(failures, strategyFailure{strategy: strategy.Name(), err: pe})
	}

	return printing.Failed(aggregate(failures))
}

// resolveTarget picks the explicit target or the OS default. An explicit
// target naming the current default is treated as the default so that
// default-only engines can still serve it.
func (d *Dispatcher) resolveTarget(ctx context.Context, job *printing.PrintJob) (Target, error) {
	if job.HasExplicitTarget() {
		def, err := d.directory.DefaultPrinter(ctx)
		explicit := err != nil || !strings.EqualFold(def, job.TargetPrinter)
		return Target{Name: job.TargetPrinter, Explicit: explicit}, nil
	}

	def, err := d.directory.DefaultPrinter(ctx)
	if err != nil {
		return Target{}, err
	}
	if strings.TrimSpace(def) == "" {
		return Target{}, printing.ErrNoDefaultPrinter
	}
	return Target{Name: def}, nil
}

// execute runs one strategy and converts a panic into an error
func (d *Dispatcher) execute(ctx context.Context, strategy Strategy, job *printing.PrintJob, target Target) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print_strategy", strategy.Name().String())
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Print strategy panicked",
				zap.String("strategy", strategy.Name().String()),
				zap.Any("panic", r),
				zap.Stack("stack"))
			err = printing.NewPrintError(strategy.FailureKind(), fmt.Sprintf("strategy panicked: %v", r), nil)
		}
		telemetry.RecordError(span, err)
	}()

	return strategy.Execute(ctx, job, target)
}

func (d *Dispatcher) recordAttempt(ctx context.Context, strategy printing.StrategyName, outcome telemetry.PrintOutcome) {
	if d.metrics != nil {
		d.metrics.RecordPrintAttempt(ctx, strategy.String(), outcome)
	}
}

func (d *Dispatcher) recordDispatch(ctx context.Context, job *printing.PrintJob, strategy, errorKind string, elapsed time.Duration) {
	if d.metrics != nil {
		d.metrics.RecordPrintDispatch(ctx, job.PayloadKind.String(), strategy, errorKind, elapsed)
	}
}

// aggregate folds strategy failures into one error. SpoolRejected wins
// because it means a printer was reached and refused the job; otherwise the
// last failure decides the kind.
func aggregate(failures []strategyFailure) *printing.PrintError {
	if len(failures) == 0 {
		return printing.NewPrintError(printing.KindEngineUnavailable, "no print strategy applies to this job", nil)
	}

	kind := failures[len(failures)-1].err.Kind
	details := make([]string, 0, len(failures))
	errs := make([]error, 0, len(failures))

	for _, f := range failures {
		if f.err.Kind == printing.KindSpoolRejected {
			kind = printing.KindSpoolRejected
		}
		details = append(details, fmt.Sprintf("%s: %s", f.strategy, describe(f.err)))
		errs = append(errs, f.err)
	}

	return printing.NewPrintError(kind, strings.Join(details, "; "), errors.Join(errs...))
}

// describe renders a failure without repeating the aggregate kind summary
func describe(pe *printing.PrintError) string {
	if pe.Detail != "" {
		return pe.Detail
	}
	return pe.Error()
}

// asPrintError returns err as a PrintError, wrapping foreign errors in fallback
func asPrintError(err error, fallback printing.ErrorKind) *printing.PrintError {
	var pe *printing.PrintError
	if errors.As(err, &pe) {
		return pe
	}
	return printing.NewPrintError(fallback, "", err)
}
