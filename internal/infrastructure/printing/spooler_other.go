//go:build !windows

package printing

import (
	"context"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"go.uber.org/zap"
)

// NativeSpooler is only available on Windows
type NativeSpooler struct{}

// NewNativeSpooler creates a spooler that always reports PlatformUnsupported
func NewNativeSpooler(*TextEncoder, string, *zap.Logger) *NativeSpooler {
	return &NativeSpooler{}
}

// Send implements RawSpooler
func (s *NativeSpooler) Send(context.Context, string, string) error {
	return printing.ErrPlatformUnsupported
}

var _ RawSpooler = (*NativeSpooler)(nil)
