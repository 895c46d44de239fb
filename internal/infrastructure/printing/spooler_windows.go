//go:build windows

package printing

import (
	"context"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/alexbrainman/printer"
	"go.uber.org/zap"
)

// NativeSpooler writes RAW documents through winspool
type NativeSpooler struct {
	encoder *TextEncoder
	docName string
	logger  *zap.Logger
}

// NewNativeSpooler creates a winspool spooler that encodes text with encoder
func NewNativeSpooler(encoder *TextEncoder, docName string, logger *zap.Logger) *NativeSpooler {
	if encoder == nil {
		encoder = &TextEncoder{name: "UTF-8"}
	}
	if docName == "" {
		docName = defaultDocumentName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NativeSpooler{encoder: encoder, docName: docName, logger: logger}
}

// Send implements RawSpooler
func (s *NativeSpooler) Send(ctx context.Context, text, printerName string) error {
	if err := ctx.Err(); err != nil {
		return printing.NewPrintError(printing.KindSpoolRejected, "", err)
	}

	if printerName == "" {
		def, err := printer.Default()
		if err != nil {
			return printing.NewPrintError(printing.KindNoDefaultPrinter, "", err)
		}
		printerName = def
	}

	p, err := printer.Open(printerName)
	if err != nil {
		return printing.NewPrintError(printing.KindSpoolRejected, "OpenPrinter "+printerName, err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			s.logger.Warn("ClosePrinter failed", zap.String("printer", printerName), zap.Error(err))
		}
	}()

	data := s.encoder.Encode(text)
	if err := writeRawDocument(p, s.docName, data, s.logger.With(zap.String("printer", printerName))); err != nil {
		return err
	}

	s.logger.Debug("Raw document written",
		zap.String("printer", printerName),
		zap.String("codepage", s.encoder.Name()),
		zap.Int("bytes", len(data)))
	return nil
}

var _ RawSpooler = (*NativeSpooler)(nil)
