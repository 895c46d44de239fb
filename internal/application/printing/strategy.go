package printing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	infra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
)

// Target is the printer a job was resolved to
type Target struct {
	Name string
	// Explicit is true when Name differs from the OS default printer
	Explicit bool
}

// Strategy is one way of getting a job onto paper
type Strategy interface {
	// Name identifies the strategy in results and logs
	Name() printing.StrategyName
	// Applies reports whether the strategy can handle the job at all
	Applies(job *printing.PrintJob) bool
	// Execute prints the job to target
	Execute(ctx context.Context, job *printing.PrintJob, target Target) error
	// FailureKind classifies failures that carry no PrintError of their own
	FailureKind() printing.ErrorKind
}

// EngineStrategy writes the markup to the job file and hands it to a
// render engine
type EngineStrategy struct {
	engine  infra.RenderEngine
	jobFile *infra.JobFile
	timeout time.Duration
}

// NewEngineStrategy creates an engine strategy
func NewEngineStrategy(engine infra.RenderEngine, jobFile *infra.JobFile, timeout time.Duration) *EngineStrategy {
	return &EngineStrategy{engine: engine, jobFile: jobFile, timeout: timeout}
}

// Name implements Strategy
func (s *EngineStrategy) Name() printing.StrategyName {
	return printing.StrategyEngine
}

// Applies implements Strategy. Plain text has no layout to render.
func (s *EngineStrategy) Applies(job *printing.PrintJob) bool {
	return job.IsMarkup()
}

// Execute implements Strategy
func (s *EngineStrategy) Execute(ctx context.Context, job *printing.PrintJob, target Target) error {
	path, err := s.jobFile.Write(job.Payload)
	if err != nil {
		return err
	}
	defer s.jobFile.Remove()

	return s.engine.Print(ctx, infra.EngineJob{
		File:     path,
		Printer:  target.Name,
		Explicit: target.Explicit,
		Timeout:  s.timeout,
	})
}

// FailureKind implements Strategy
func (s *EngineStrategy) FailureKind() printing.ErrorKind {
	return printing.KindEngineUnavailable
}

// RawTextStrategy extracts plain text from markup and spools it directly.
// It is the fallback for dot-matrix printers.
type RawTextStrategy struct {
	spooler   infra.RawSpooler
	extractor *infra.Extractor
}

// NewRawTextStrategy creates a raw text strategy. A nil extractor uses the
// default padding.
func NewRawTextStrategy(spooler infra.RawSpooler, extractor *infra.Extractor) *RawTextStrategy {
	if extractor == nil {
		extractor = infra.NewExtractor(infra.DefaultExtractorOptions())
	}
	return &RawTextStrategy{spooler: spooler, extractor: extractor}
}

// Name implements Strategy
func (s *RawTextStrategy) Name() printing.StrategyName {
	return printing.StrategyRaw
}

// Applies implements Strategy
func (s *RawTextStrategy) Applies(*printing.PrintJob) bool {
	return true
}

// Execute implements Strategy. Text payloads are sent unchanged.
func (s *RawTextStrategy) Execute(ctx context.Context, job *printing.PrintJob, target Target) error {
	text := job.Payload
	if job.IsMarkup() {
		text = s.extractor.Extract(job.Payload)
	}
	return s.spooler.Send(ctx, text, target.Name)
}

// FailureKind implements Strategy
func (s *RawTextStrategy) FailureKind() printing.ErrorKind {
	return printing.KindSpoolRejected
}

// StrategyDeps carries what BuildStrategies needs to construct each strategy
type StrategyDeps struct {
	Engine        infra.RenderEngine
	Spooler       infra.RawSpooler
	JobFile       *infra.JobFile
	Extractor     *infra.Extractor
	EngineTimeout time.Duration
}

// BuildStrategies turns configured strategy names into a dispatch chain,
// keeping their order. Names are case-insensitive.
func BuildStrategies(names []string, deps StrategyDeps) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(names))
	seen := make(map[printing.StrategyName]bool, len(names))

	for _, raw := range names {
		name := printing.StrategyName(strings.ToLower(strings.TrimSpace(raw)))
		if !name.IsValid() {
			return nil, fmt.Errorf("unknown print strategy %q", raw)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate print strategy %q", raw)
		}
		seen[name] = true

		switch name {
		case printing.StrategyEngine:
			if deps.Engine == nil || deps.JobFile == nil {
				return nil, fmt.Errorf("strategy %q needs a render engine and a job file", name)
			}
			strategies = append(strategies, NewEngineStrategy(deps.Engine, deps.JobFile, deps.EngineTimeout))
		case printing.StrategyRaw:
			if deps.Spooler == nil {
				return nil, fmt.Errorf("strategy %q needs a spooler", name)
			}
			strategies = append(strategies, NewRawTextStrategy(deps.Spooler, deps.Extractor))
		}
	}

	if len(strategies) == 0 {
		return nil, fmt.Errorf("no print strategies configured")
	}
	return strategies, nil
}

var (
	_ Strategy = (*EngineStrategy)(nil)
	_ Strategy = (*RawTextStrategy)(nil)
)
