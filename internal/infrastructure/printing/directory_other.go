//go:build !windows

package printing

import (
	"context"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"go.uber.org/zap"
)

// NativeDirectory is only available on Windows
type NativeDirectory struct{}

// NewNativeDirectory creates a directory that always reports PlatformUnsupported
func NewNativeDirectory(*zap.Logger) *NativeDirectory {
	return &NativeDirectory{}
}

// ListPrinters implements PrinterDirectory
func (d *NativeDirectory) ListPrinters(context.Context) ([]printing.PrinterDescriptor, error) {
	return nil, printing.ErrPlatformUnsupported
}

// DefaultPrinter implements PrinterDirectory
func (d *NativeDirectory) DefaultPrinter(context.Context) (string, error) {
	return "", printing.ErrPlatformUnsupported
}

var _ PrinterDirectory = (*NativeDirectory)(nil)
