package printing

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"go.uber.org/zap"
)

const defaultDocumentName = "MedBill Receipt"

// inlineScriptLimit bounds the script passed with -Command. Windows caps a
// command line at 32767 UTF-16 units; the rest is left for the binary path,
// the fixed flags and argument quoting.
const inlineScriptLimit = 30000

// RawSpooler sends literal text to a printer queue. An empty printer name
// means the OS default printer.
type RawSpooler interface {
	Send(ctx context.Context, text, printerName string) error
}

// PowerShellSpooler pipes text to Out-Printer
type PowerShellSpooler struct {
	shell    *PowerShell
	spoolDir string
	logger   *zap.Logger
}

// NewPowerShellSpooler creates a spooler backed by the given shell
func NewPowerShellSpooler(shell *PowerShell, logger *zap.Logger) *PowerShellSpooler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PowerShellSpooler{shell: shell, logger: logger}
}

// SetSpoolDir sets where text too long for a command line is staged before
// printing. Empty means the OS temp dir.
func (s *PowerShellSpooler) SetSpoolDir(dir string) {
	s.spoolDir = dir
}

// OutPrinterScript builds the script that spools text. Both the text and
// the printer name are embedded as single-quoted literals.
func OutPrinterScript(text, printerName string) string {
	var b strings.Builder
	b.WriteString("$text = ")
	b.WriteString(QuoteLiteral(text))
	b.WriteString("\n$text | Out-Printer")
	if printerName != "" {
		b.WriteString(" -Name ")
		b.WriteString(QuoteLiteral(printerName))
	}
	return b.String()
}

// OutPrinterFileScript builds the script that spools the UTF-8 text stored
// at path
func OutPrinterFileScript(path, printerName string) string {
	var b strings.Builder
	b.WriteString("Get-Content -LiteralPath ")
	b.WriteString(QuoteLiteral(path))
	b.WriteString(" -Raw -Encoding UTF8 | Out-Printer")
	if printerName != "" {
		b.WriteString(" -Name ")
		b.WriteString(QuoteLiteral(printerName))
	}
	return b.String()
}

// Send implements RawSpooler. Error output on stderr means the spooler
// rejected the job. A non-zero exit code without error output is accepted.
// Text that would overflow the command line is staged in a file first.
func (s *PowerShellSpooler) Send(ctx context.Context, text, printerName string) error {
	script := OutPrinterScript(text, printerName)
	if commandLineUnits(script) <= inlineScriptLimit {
		return s.run(ctx, script, printerName, len(text))
	}

	path, err := s.stage(text)
	if err != nil {
		return printing.NewPrintError(printing.KindTempFileIO, "could not stage receipt text", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove staged receipt text", zap.String("path", path), zap.Error(err))
		}
	}()

	s.logger.Debug("Receipt text staged to a file", zap.String("path", path), zap.Int("bytes", len(text)))
	return s.run(ctx, OutPrinterFileScript(path, printerName), printerName, len(text))
}

func (s *PowerShellSpooler) run(ctx context.Context, script, printerName string, size int) error {
	res, err := s.shell.Run(ctx, script)
	if err != nil {
		return printing.NewPrintError(printing.KindSpoolRejected, "Out-Printer could not start", err)
	}

	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		return printing.NewPrintError(printing.KindSpoolRejected, stderr, nil)
	}

	if res.ExitCode != 0 {
		s.logger.Warn("Out-Printer exited non-zero without error output",
			zap.Int("exit_code", res.ExitCode),
			zap.String("printer", printerName))
	}

	s.logger.Debug("Raw text spooled",
		zap.String("printer", printerName),
		zap.Int("bytes", size))
	return nil
}

func (s *PowerShellSpooler) stage(text string) (string, error) {
	dir := s.spoolDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "medbill_raw_*.txt")
	if err != nil {
		return "", err
	}
	_, werr := f.WriteString(text)
	if err := errors.Join(werr, f.Close()); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// commandLineUnits estimates the UTF-16 length of script once quoted as a
// process argument. Quotes and backslashes may be escaped, so they count twice.
func commandLineUnits(script string) int {
	n := 0
	for _, r := range script {
		if r == '"' || r == '\\' {
			n += 2
			continue
		}
		n += utf16.RuneLen(r)
	}
	return n
}

var _ RawSpooler = (*PowerShellSpooler)(nil)

// rawPrinter is the part of a winspool handle a RAW job uses
type rawPrinter interface {
	StartDocument(name, datatype string) error
	StartPage() error
	Write(b []byte) (int, error)
	EndPage() error
	EndDocument() error
}

// writeRawDocument writes data as a single-page RAW document. A started
// document is always ended, since an unended one stays open in the queue
// and never prints.
func writeRawDocument(p rawPrinter, docName string, data []byte, logger *zap.Logger) (err error) {
	if err := p.StartDocument(docName, "RAW"); err != nil {
		return printing.NewPrintError(printing.KindSpoolRejected, "StartDocPrinter", err)
	}
	defer func() {
		endErr := p.EndDocument()
		if endErr == nil {
			return
		}
		logger.Warn("EndDocPrinter failed, the job may be stuck in the queue", zap.Error(endErr))
		if err == nil {
			err = printing.NewPrintError(printing.KindSpoolRejected, "EndDocPrinter", endErr)
		}
	}()

	if err := p.StartPage(); err != nil {
		return printing.NewPrintError(printing.KindSpoolRejected, "StartPagePrinter", err)
	}

	if _, err := p.Write(data); err != nil {
		if endErr := p.EndPage(); endErr != nil {
			logger.Warn("EndPagePrinter failed after a write error", zap.Error(endErr))
		}
		return printing.NewPrintError(printing.KindSpoolRejected, "WritePrinter", err)
	}

	if err := p.EndPage(); err != nil {
		return printing.NewPrintError(printing.KindSpoolRejected, "EndPagePrinter", err)
	}
	return nil
}
