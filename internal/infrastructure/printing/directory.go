package printing

import (
	"context"
	"strings"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"go.uber.org/zap"
)

const (
	listPrintersScript   = `Get-CimInstance -Class Win32_Printer | ForEach-Object { "{0}` + "`t" + `{1}" -f $_.Default, $_.Name }`
	defaultPrinterScript = "(Get-CimInstance -Class Win32_Printer | Where-Object {$_.Default -eq $true}).Name"
)

// PrinterDirectory reports the printers installed on this machine.
// Results are live snapshots and are never cached.
type PrinterDirectory interface {
	// ListPrinters returns every installed printer. A failing query is an
	// OSQueryFailed error; an empty slice is not an error.
	ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error)
	// DefaultPrinter returns the name of the OS default printer or a
	// NoDefaultPrinter error.
	DefaultPrinter(ctx context.Context) (string, error)
}

// PowerShellDirectory queries Win32_Printer through PowerShell
type PowerShellDirectory struct {
	shell  *PowerShell
	logger *zap.Logger
}

// NewPowerShellDirectory creates a directory backed by the given shell
func NewPowerShellDirectory(shell *PowerShell, logger *zap.Logger) *PowerShellDirectory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PowerShellDirectory{shell: shell, logger: logger}
}

// ListPrinters implements PrinterDirectory
func (d *PowerShellDirectory) ListPrinters(ctx context.Context) ([]printing.PrinterDescriptor, error) {
	res, err := d.shell.Run(ctx, listPrintersScript)
	if err != nil {
		return nil, printing.NewPrintError(printing.KindOSQueryFailed, "printer query could not start", err)
	}
	if res.ExitCode != 0 {
		return nil, printing.NewPrintError(printing.KindOSQueryFailed, strings.TrimSpace(res.Stderr), nil)
	}

	printers := parsePrinterLines(res.Stdout)
	d.logger.Debug("Listed printers", zap.Int("count", len(printers)))
	return printers, nil
}

// DefaultPrinter implements PrinterDirectory
func (d *PowerShellDirectory) DefaultPrinter(ctx context.Context) (string, error) {
	res, err := d.shell.Run(ctx, defaultPrinterScript)
	if err != nil {
		return "", printing.NewPrintError(printing.KindNoDefaultPrinter, "default printer query could not start", err)
	}

	name := firstLine(res.Stdout)
	if name == "" {
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			d.logger.Warn("Default printer query reported errors", zap.String("stderr", stderr))
		}
		return "", printing.ErrNoDefaultPrinter
	}
	return name, nil
}

// parsePrinterLines parses "Default<TAB>Name" lines
func parsePrinterLines(out string) []printing.PrinterDescriptor {
	printers := make([]printing.PrinterDescriptor, 0)
	for _, line := range strings.Split(normalizeNewlines(out), "\n") {
		flag, name, found := strings.Cut(line, "\t")
		if !found {
			if bare := strings.TrimSpace(line); bare != "" {
				printers = append(printers, printing.PrinterDescriptor{Name: bare})
			}
			continue
		}

		// a blank name after the tab is a printer without a name, not a bare name
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		printers = append(printers, printing.PrinterDescriptor{
			Name:      name,
			IsDefault: strings.EqualFold(strings.TrimSpace(flag), "true"),
		})
	}
	return printers
}

func firstLine(out string) string {
	for _, line := range strings.Split(normalizeNewlines(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

var _ PrinterDirectory = (*PowerShellDirectory)(nil)
