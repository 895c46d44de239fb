//go:build windows

package printing

import (
	"context"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/alexbrainman/printer"
	"go.uber.org/zap"
)

// NativeDirectory queries the print spooler directly through winspool
type NativeDirectory struct {
	logger *zap.Logger
}

// NewNativeDirectory creates a winspool-backed directory
func NewNativeDirectory(logger *zap.Logger) *NativeDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NativeDirectory{logger: logger}
}

// ListPrinters implements PrinterDirectory
func (d *NativeDirectory) ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, printing.NewPrintError(printing.KindOSQueryFailed, "", err)
	}

	names, err := printer.ReadNames()
	if err != nil {
		return nil, printing.NewPrintError(printing.KindOSQueryFailed, "EnumPrinters failed", err)
	}

	def, err := printer.Default()
	if err != nil {
		d.logger.Debug("No default printer while listing", zap.Error(err))
		def = ""
	}

	printers := make([]printing.PrinterDescriptor, 0, len(names))
	for _, name := range names {
		printers = append(printers, printing.PrinterDescriptor{
			Name:      name,
			IsDefault: def != "" && name == def,
		})
	}
	return printers, nil
}

// DefaultPrinter implements PrinterDirectory
func (d *NativeDirectory) DefaultPrinter(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", printing.NewPrintError(printing.KindNoDefaultPrinter, "", err)
	}

	name, err := printer.Default()
	if err != nil {
		return "", printing.NewPrintError(printing.KindNoDefaultPrinter, "", err)
	}
	if name == "" {
		return "", printing.ErrNoDefaultPrinter
	}
	return name, nil
}

var _ PrinterDirectory = (*NativeDirectory)(nil)
