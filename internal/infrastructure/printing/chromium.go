package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultEngineTimeout = 10 * time.Second
	defaultSettleDelay   = 2 * time.Second
)

// afterPrintScript resolves once the browser reports the print finished.
// With --kiosk-printing the job goes straight to the default printer.
const afterPrintScript = `new Promise(function (resolve) {
	window.addEventListener('afterprint', function () { resolve(true); }, { once: true });
	window.print();
})`

// DefaultBrowserCandidates are tried in order when no browser path is set.
// Edge ships with every supported Windows install, so it comes first.
var DefaultBrowserCandidates = []string{
	`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
	`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	"msedge",
	"chrome",
	"google-chrome",
	"chromium",
	"chromium-browser",
}

// ChromiumConfig contains configuration for the chromium engine
type ChromiumConfig struct {
	// BrowserPath pins the browser executable. If empty, Candidates are searched.
	BrowserPath string
	// Candidates are absolute paths or PATH names probed in order
	Candidates []string
	// DefaultTimeout bounds a whole print including browser start-up
	DefaultTimeout time.Duration
	// SettleDelay keeps the browser alive after printing so the spooler can
	// take the job before the process exits
	SettleDelay time.Duration
	// NoSandbox runs the browser without its sandbox
	NoSandbox bool
	// Logger for debug output
	Logger *zap.Logger
}

// ChromiumEngine prints through Edge or Chrome using the DevTools protocol.
// The browser is started per job with kiosk printing, so it can only print
// to the OS default printer.
type ChromiumEngine struct {
	config *ChromiumConfig
	logger *zap.Logger
}

// NewChromiumEngine creates a chromium engine. The browser is located lazily
// on every print so that installing a browser later needs no restart.
func NewChromiumEngine(config *ChromiumConfig) *ChromiumEngine {
	if config == nil {
		config = &ChromiumConfig{}
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = defaultEngineTimeout
	}
	if config.SettleDelay < 0 {
		config.SettleDelay = 0
	} else if config.SettleDelay == 0 {
		config.SettleDelay = defaultSettleDelay
	}
	if len(config.Candidates) == 0 {
		config.Candidates = DefaultBrowserCandidates
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChromiumEngine{config: config, logger: logger}
}

// Name implements RenderEngine
func (e *ChromiumEngine) Name() string {
	return EngineChromium
}

// Print implements RenderEngine
func (e *ChromiumEngine) Print(ctx context.Context, job EngineJob) error {
	if job.Explicit {
		return printing.NewPrintError(printing.KindEngineUnavailable,
			fmt.Sprintf("chromium prints to the default printer only, not %q", job.Printer), nil)
	}

	browser, err := e.resolveBrowser()
	if err != nil {
		return err
	}

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = e.config.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, e.allocatorOptions(browser)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			e.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	startTime := time.Now()
	var printed bool

	err = chromedp.Run(browserCtx,
		chromedp.Navigate(job.FileURL()),
		chromedp.Evaluate(afterPrintScript, &printed, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.Sleep(e.config.SettleDelay),
	)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.logger.Warn("Browser print timed out, the browser process may outlive the job",
				zap.Duration("timeout", timeout))
			return printing.NewPrintError(printing.KindEngineTimeout,
				fmt.Sprintf("chromium did not finish within %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return printing.NewPrintError(printing.KindEngineTimeout, "chromium print was cancelled", err)
		}

		e.logger.Error("chromedp print failed", zap.Error(err))
		return printing.NewPrintError(printing.KindEngineUnavailable, "chromedp execution failed", err)
	}

	e.logger.Info("Document printed by browser",
		zap.String("browser", browser),
		zap.String("printer", job.Printer),
		zap.Duration("duration", time.Since(startTime)))

	return nil
}

func (e *ChromiumEngine) allocatorOptions(browser string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browser),
		// window.print() is a no-op in headless mode
		chromedp.Flag("headless", false),
		chromedp.Flag("kiosk-printing", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("allow-file-access-from-files", true),
		chromedp.Flag("window-position", "-32000,-32000"),
		chromedp.WindowSize(400, 600),
	)

	if e.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}

	return opts
}

// resolveBrowser returns the first usable browser executable
func (e *ChromiumEngine) resolveBrowser() (string, error) {
	if e.config.BrowserPath != "" {
		path, err := resolveBinaryPath(e.config.BrowserPath)
		if err != nil {
			return "", printing.NewPrintError(printing.KindEngineUnavailable,
				"browser not found: "+e.config.BrowserPath, err)
		}
		return path, nil
	}

	for _, candidate := range e.config.Candidates {
		if path, err := resolveBinaryPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", printing.NewPrintError(printing.KindEngineUnavailable, "no Edge or Chrome installation found", nil)
}

// Close implements RenderEngine. Browsers are started per job, so there is
// nothing to release.
func (e *ChromiumEngine) Close() error {
	return nil
}

// resolveBinaryPath finds the full path to an executable
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory", path)
		}
		return path, nil
	}

	return exec.LookPath(path)
}

// Ensure ChromiumEngine implements RenderEngine
var _ RenderEngine = (*ChromiumEngine)(nil)
