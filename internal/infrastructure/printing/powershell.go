package printing

import (
	"context"
	"strings"
)

const defaultPowerShell = "powershell"

// powerShellQuotes are the characters PowerShell accepts as a single quote
// inside a single-quoted string literal.
var powerShellQuotes = []rune{'\'', '‘', '’', '‚', '‛'}

// QuoteLiteral returns s as a single-quoted PowerShell string literal.
// Every single-quote variant is doubled. No other character is special
// inside a single-quoted literal, so the result cannot terminate early.
func QuoteLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		if isPowerShellQuote(r) {
			b.WriteRune(r)
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

func isPowerShellQuote(r rune) bool {
	for _, q := range powerShellQuotes {
		if r == q {
			return true
		}
	}
	return false
}

// PowerShell runs scripts through a CommandRunner with a hidden, profile-free
// and non-interactive host.
type PowerShell struct {
	runner CommandRunner
	binary string
}

// NewPowerShell creates a PowerShell host. An empty binary means "powershell"
// from PATH.
func NewPowerShell(runner CommandRunner, binary string) *PowerShell {
	if runner == nil {
		runner = NewExecRunner()
	}
	if binary == "" {
		binary = defaultPowerShell
	}
	return &PowerShell{runner: runner, binary: binary}
}

// Args returns the argument list used to run script
func (p *PowerShell) Args(script string) []string {
	return []string{
		"-NoProfile",
		"-NonInteractive",
		"-WindowStyle", "Hidden",
		"-ExecutionPolicy", "Bypass",
		"-Command", script,
	}
}

// Run executes script and returns the captured output
func (p *PowerShell) Run(ctx context.Context, script string) (CommandResult, error) {
	return p.runner.Run(ctx, p.binary, p.Args(script)...)
}
