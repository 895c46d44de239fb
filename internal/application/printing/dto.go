package printing

import "github.com/Mugunth140/medical-billing/internal/domain/printing"

// =============================================================================
// Print Request DTOs
// =============================================================================

// SilentPrintRequest represents a request to print a finished HTML bill
type SilentPrintRequest struct {
	Markup string `json:"markup" binding:"required"`
}

// RawPrintRequest represents a request to spool plain text
type RawPrintRequest struct {
	Text        string  `json:"text" binding:"required"`
	PrinterName *string `json:"printer_name" binding:"omitempty,max=255,printername"`
}

// TestPageRequest prints the sample receipt, optionally on a named printer
type TestPageRequest struct {
	PrinterName *string `json:"printer_name" binding:"omitempty,max=255,printername"`
}

// SetPreferredPrinterRequest sets or clears the receipt printer.
// An empty name clears the setting.
type SetPreferredPrinterRequest struct {
	Name string `json:"name" binding:"max=255,printername"`
}

// =============================================================================
// Print Response DTOs
// =============================================================================

// PrintResponse is returned when a job reached a printer queue
type PrintResponse struct {
	Message string `json:"message"`
}

// PrinterDTO describes one installed printer
type PrinterDTO struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	IsVirtual bool   `json:"is_virtual"`
}

// PrinterAvailabilityResponse reports whether a default printer exists
type PrinterAvailabilityResponse struct {
	Available bool `json:"available"`
}

// DefaultPrinterResponse holds the OS default printer name
type DefaultPrinterResponse struct {
	Name string `json:"name"`
}

// PreferredPrinterResponse holds the configured receipt printer
type PreferredPrinterResponse struct {
	Name  string `json:"name"`
	IsSet bool   `json:"is_set"`
}

// ToPrinterDTOs converts descriptors, flagging the ones the guard rejects
func ToPrinterDTOs(printers []printing.PrinterDescriptor, guard *printing.VirtualPrinterGuard) []PrinterDTO {
	out := make([]PrinterDTO, 0, len(printers))
	for _, p := range printers {
		_, virtual := guard.Match(p.Name)
		out = append(out, PrinterDTO{
			Name:      p.Name,
			IsDefault: p.IsDefault,
			IsVirtual: virtual,
		})
	}
	return out
}
