package printing

// Outcome tags a PrintResult
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// StrategyName identifies a delivery strategy in the dispatch chain
type StrategyName string

const (
	// StrategyEngine renders the original markup with a browser engine
	StrategyEngine StrategyName = "engine"
	// StrategyRaw spools extracted plain text
	StrategyRaw StrategyName = "raw"
)

// IsValid checks if the StrategyName is a known strategy
func (s StrategyName) IsValid() bool {
	return s == StrategyEngine || s == StrategyRaw
}

// String returns the string representation of StrategyName
func (s StrategyName) String() string {
	return string(s)
}

// PrintResult is the tagged outcome of a dispatch. Exactly one of the
// success fields or Reason is meaningful, selected by Outcome.
type PrintResult struct {
	Outcome     Outcome
	Message     string
	PrinterName string
	Strategy    StrategyName
	Reason      *PrintError
}

// Succeeded creates a success result
func Succeeded(message, printerName string, strategy StrategyName) PrintResult {
	return PrintResult{
		Outcome:     OutcomeSuccess,
		Message:     message,
		PrinterName: printerName,
		Strategy:    strategy,
	}
}

// Failed creates a failure result
func Failed(reason *PrintError) PrintResult {
	return PrintResult{
		Outcome: OutcomeFailure,
		Reason:  reason,
	}
}

// IsSuccess reports whether the job reached a printer queue
func (r PrintResult) IsSuccess() bool {
	return r.Outcome == OutcomeSuccess
}

// Err returns the failure reason as an error, or nil on success
func (r PrintResult) Err() error {
	if r.IsSuccess() || r.Reason == nil {
		return nil
	}
	return r.Reason
}
