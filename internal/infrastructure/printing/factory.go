package printing

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Backend names accepted in configuration
const (
	BackendPowerShell = "powershell"
	BackendWinspool   = "winspool"
)

// BackendOptions selects and configures the OS-facing printing components
type BackendOptions struct {
	Directory      string
	Spooler        string
	Engine         string
	PowerShellPath string
	BrowserPath    string
	EngineTimeout  time.Duration
	SettleDelay    time.Duration
	RawCodePage    string
	SpoolDir       string
	NoSandbox      bool
	Logger         *zap.Logger
}

// Backend bundles the printer directory, spooler and render engine
type Backend struct {
	Directory PrinterDirectory
	Spooler   RawSpooler
	Engine    RenderEngine
}

// NewBackend builds the components named in opts. A nil runner uses
// ExecRunner. Empty names select PowerShell and chromium.
func NewBackend(opts BackendOptions, runner CommandRunner) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	shell := NewPowerShell(runner, opts.PowerShellPath)

	backend := &Backend{}

	switch strings.ToLower(opts.Directory) {
	case "", BackendPowerShell:
		backend.Directory = NewPowerShellDirectory(shell, logger.Named("directory"))
	case BackendWinspool:
		backend.Directory = NewNativeDirectory(logger.Named("directory"))
	default:
		return nil, fmt.Errorf("unknown printer directory %q", opts.Directory)
	}

	switch strings.ToLower(opts.Spooler) {
	case "", BackendPowerShell:
		spooler := NewPowerShellSpooler(shell, logger.Named("spooler"))
		spooler.SetSpoolDir(opts.SpoolDir)
		backend.Spooler = spooler
	case BackendWinspool:
		encoder, err := NewTextEncoder(opts.RawCodePage)
		if err != nil {
			return nil, err
		}
		backend.Spooler = NewNativeSpooler(encoder, defaultDocumentName, logger.Named("spooler"))
	default:
		return nil, fmt.Errorf("unknown spooler %q", opts.Spooler)
	}

	switch strings.ToLower(opts.Engine) {
	case "", EngineChromium:
		backend.Engine = NewChromiumEngine(&ChromiumConfig{
			BrowserPath:    opts.BrowserPath,
			DefaultTimeout: opts.EngineTimeout,
			SettleDelay:    opts.SettleDelay,
			NoSandbox:      opts.NoSandbox,
			Logger:         logger.Named("chromium"),
		})
	case EngineMSHTML:
		backend.Engine = NewMSHTMLEngine(shell, &MSHTMLConfig{
			DefaultTimeout: opts.EngineTimeout,
			SettleDelay:    opts.SettleDelay,
			Logger:         logger.Named("mshtml"),
		})
	default:
		return nil, fmt.Errorf("unknown render engine %q", opts.Engine)
	}

	return backend, nil
}

// Close releases the render engine
func (b *Backend) Close() error {
	if b.Engine == nil {
		return nil
	}
	return b.Engine.Close()
}
