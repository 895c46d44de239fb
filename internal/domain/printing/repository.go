package printing

import "context"

// PreferredPrinterKey is the settings key holding the receipt printer name
const PreferredPrinterKey = "printing.preferred_printer"

// PrinterSettingsRepository stores the operator's receipt printer choice
type PrinterSettingsRepository interface {
	// GetPreferredPrinter returns the stored printer name, or "" when unset
	GetPreferredPrinter(ctx context.Context) (string, error)

	// SetPreferredPrinter stores the printer name. An empty name clears it.
	SetPreferredPrinter(ctx context.Context, name string) error
}
