package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"go.uber.org/zap"
)

const mshtmlSuccessMarker = "SUCCESS"

// mshtmlScript drives the legacy IE engine. ExecWB(6, 2) is
// OLECMDID_PRINT with OLECMDEXECOPT_DONTPROMPTUSER. The default printer is
// switched to the target for the duration of the job and then restored.
var mshtmlScript = template.Must(template.New("mshtml").Parse(`$ErrorActionPreference = 'Stop'
$path = {{.Path}}
$target = {{.Printer}}
$net = New-Object -ComObject WScript.Network
$previous = (Get-CimInstance -Class Win32_Printer | Where-Object {$_.Default -eq $true}).Name
$switched = $false
try {
    if ($target -and $target -ne $previous) {
        $net.SetDefaultPrinter($target)
        $switched = $true
    }
    $ie = New-Object -ComObject InternetExplorer.Application
    $ie.Visible = $false
    $ie.Navigate($path)
    while ($ie.Busy -or $ie.ReadyState -ne 4) { Start-Sleep -Milliseconds 100 }
    $ie.ExecWB(6, 2)
    Start-Sleep -Seconds {{.SettleSeconds}}
    $ie.Quit()
    Write-Output '` + mshtmlSuccessMarker + `'
} finally {
    if ($switched -and $previous) { $net.SetDefaultPrinter($previous) }
}
`))

type mshtmlScriptData struct {
	Path          string
	Printer       string
	SettleSeconds int
}

// MSHTMLConfig contains configuration for the mshtml engine
type MSHTMLConfig struct {
	DefaultTimeout time.Duration
	SettleDelay    time.Duration
	Logger         *zap.Logger
}

// MSHTMLEngine prints through the InternetExplorer.Application COM object.
// Unlike chromium it can reach any installed printer.
type MSHTMLEngine struct {
	shell  *PowerShell
	config *MSHTMLConfig
	logger *zap.Logger
}

// NewMSHTMLEngine creates an mshtml engine
func NewMSHTMLEngine(shell *PowerShell, config *MSHTMLConfig) *MSHTMLEngine {
	if config == nil {
		config = &MSHTMLConfig{}
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = defaultEngineTimeout
	}
	if config.SettleDelay <= 0 {
		config.SettleDelay = defaultSettleDelay
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MSHTMLEngine{shell: shell, config: config, logger: logger}
}

// Name implements RenderEngine
func (e *MSHTMLEngine) Name() string {
	return EngineMSHTML
}

// Script returns the PowerShell script that prints job
func (e *MSHTMLEngine) Script(job EngineJob) (string, error) {
	settle := int(e.config.SettleDelay.Round(time.Second) / time.Second)
	if settle < 1 {
		settle = 1
	}

	var b strings.Builder
	err := mshtmlScript.Execute(&b, mshtmlScriptData{
		Path:          QuoteLiteral(job.File),
		Printer:       QuoteLiteral(job.Printer),
		SettleSeconds: settle,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build mshtml script: %w", err)
	}
	return b.String(), nil
}

// Print implements RenderEngine
func (e *MSHTMLEngine) Print(ctx context.Context, job EngineJob) error {
	script, err := e.Script(job)
	if err != nil {
		return printing.NewPrintError(printing.KindEngineUnavailable, "", err)
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startTime := time.Now()
	res, err := e.shell.Run(ctx, script)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return printing.NewPrintError(printing.KindEngineTimeout,
				fmt.Sprintf("mshtml did not finish within %v", timeout), err)
		}
		return printing.NewPrintError(printing.KindEngineUnavailable, "powershell could not start", err)
	}

	if !strings.Contains(res.Stdout, mshtmlSuccessMarker) {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("script exited with code %d without reporting success", res.ExitCode)
		}
		e.logger.Error("mshtml print failed",
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", res.Stderr))
		return printing.NewPrintError(printing.KindEngineUnavailable, detail, nil)
	}

	e.logger.Info("Document printed by mshtml",
		zap.String("printer", job.Printer),
		zap.Duration("duration", time.Since(startTime)))

	return nil
}

// Close implements RenderEngine
func (e *MSHTMLEngine) Close() error {
	return nil
}

var _ RenderEngine = (*MSHTMLEngine)(nil)
