package printing

import "strings"

// PrinterDescriptor is a point-in-time view of an installed printer.
// Descriptors are fetched on demand and must not be cached: the operator can
// change the default printer between two bills.
type PrinterDescriptor struct {
	Name      string
	IsDefault bool
}

// DefaultVirtualPrinterPatterns lists name fragments of drivers that accept a
// job without producing paper (print-to-file, note taking, fax).
var DefaultVirtualPrinterPatterns = []string{
	"PDF",
	"XPS",
	"OneNote",
	"Fax",
	"Send To",
	"Document Writer",
	"Microsoft Print to",
}

// VirtualPrinterGuard rejects printers whose name matches a virtual driver
type VirtualPrinterGuard struct {
	patterns []string
}

// NewVirtualPrinterGuard creates a guard. An empty pattern list falls back to
// DefaultVirtualPrinterPatterns.
func NewVirtualPrinterGuard(patterns []string) *VirtualPrinterGuard {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, strings.ToLower(p))
		}
	}
	if len(cleaned) == 0 {
		for _, p := range DefaultVirtualPrinterPatterns {
			cleaned = append(cleaned, strings.ToLower(p))
		}
	}
	return &VirtualPrinterGuard{patterns: cleaned}
}

// Match returns the first pattern contained in name, case-insensitively
func (g *VirtualPrinterGuard) Match(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, p := range g.patterns {
		if strings.Contains(lower, p) {
			return p, true
		}
	}
	return "", false
}

// Check returns an UnsuitablePrinter error when name is a virtual printer
func (g *VirtualPrinterGuard) Check(name string) error {
	if pattern, ok := g.Match(name); ok {
		return NewPrintError(KindUnsuitablePrinter,
			"'"+name+"' looks like a virtual printer (matches \""+pattern+"\")", nil)
	}
	return nil
}

// Patterns returns a copy of the lower-cased patterns
func (g *VirtualPrinterGuard) Patterns() []string {
	out := make([]string, len(g.patterns))
	copy(out, g.patterns)
	return out
}
