package printing

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	infra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PlatformSupported reports whether silent printing may touch the OS.
// forceEnable lets tests and non-Windows builds run the full flow.
func PlatformSupported(forceEnable bool) bool {
	return forceEnable || runtime.GOOS == "windows"
}

// PrintService handles printing-related business operations
type PrintService struct {
	dispatcher *Dispatcher
	directory  infra.PrinterDirectory
	settings   printing.PrinterSettingsRepository
	guard      *printing.VirtualPrinterGuard
	enabled    bool
	logger     *zap.Logger
}

// NewPrintService creates a new PrintService. settings may be nil, in which
// case jobs always go to the OS default printer.
func NewPrintService(
	dispatcher *Dispatcher,
	directory infra.PrinterDirectory,
	settings printing.PrinterSettingsRepository,
	guard *printing.VirtualPrinterGuard,
	enabled bool,
	logger *zap.Logger,
) *PrintService {
	if guard == nil {
		guard = printing.NewVirtualPrinterGuard(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintService{
		dispatcher: dispatcher,
		directory:  directory,
		settings:   settings,
		guard:      guard,
		enabled:    enabled,
		logger:     logger,
	}
}

// Enabled reports whether the platform gate is open
func (s *PrintService) Enabled() bool {
	return s.enabled
}

func (s *PrintService) checkPlatform() error {
	if !s.enabled {
		return printing.NewPrintError(printing.KindPlatformUnsupported, runtime.GOOS, nil)
	}
	return nil
}

// =============================================================================
// Print Operations
// =============================================================================

// SilentPrint prints a finished HTML bill without any dialog. The job goes to
// the preferred printer when one is configured, otherwise to the OS default.
func (s *PrintService) SilentPrint(ctx context.Context, markup string) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "silent_print")
	defer span.End()

	if err := s.checkPlatform(); err != nil {
		return "", err
	}

	job, err := printing.NewPrintJob(markup, printing.PayloadMarkup, s.preferredTarget(ctx))
	if err != nil {
		return "", err
	}

	return s.run(ctx, job)
}

// PrintMarkup prints an HTML document like SilentPrint but lets the caller
// name the printer. A nil or blank printerName behaves like SilentPrint.
func (s *PrintService) PrintMarkup(ctx context.Context, markup string, printerName *string) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "print_markup")
	defer span.End()

	if err := s.checkPlatform(); err != nil {
		return "", err
	}

	job, err := printing.NewPrintJob(markup, printing.PayloadMarkup, s.targetFor(ctx, printerName))
	if err != nil {
		return "", err
	}

	return s.run(ctx, job)
}

// PrintRawText spools text unchanged. A nil or blank printerName falls back
// to the preferred printer and then to the OS default.
func (s *PrintService) PrintRawText(ctx context.Context, text string, printerName *string) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "print_raw_text")
	defer span.End()

	if err := s.checkPlatform(); err != nil {
		return "", err
	}

	job, err := printing.NewPrintJob(text, printing.PayloadText, s.targetFor(ctx, printerName))
	if err != nil {
		return "", err
	}

	return s.run(ctx, job)
}

// PrintTestPage prints the sample receipt through the normal bill path. The
// page names the printer so the operator can tell queues apart.
func (s *PrintService) PrintTestPage(ctx context.Context, printerName *string) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "print", "print_test_page")
	defer span.End()

	if err := s.checkPlatform(); err != nil {
		return "", err
	}

	target := s.targetFor(ctx, printerName)

	shown := target
	if shown == "" {
		def, err := s.directory.DefaultPrinter(ctx)
		if err != nil {
			return "", err
		}
		shown = def
	}

	markup, err := infra.RenderTestReceipt(infra.SampleTestReceipt(shown, time.Now()))
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	job, err := printing.NewPrintJob(markup, printing.PayloadMarkup, target)
	if err != nil {
		return "", err
	}

	return s.run(ctx, job)
}

func (s *PrintService) run(ctx context.Context, job *printing.PrintJob) (string, error) {
	result := s.dispatcher.Dispatch(ctx, job)
	if !result.IsSuccess() {
		s.logger.Error("Print job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("kind", result.Reason.Kind.String()),
			zap.Error(result.Reason))
		return "", result.Err()
	}
	return result.Message, nil
}

// targetFor returns the trimmed explicit name, or the preferred printer
func (s *PrintService) targetFor(ctx context.Context, printerName *string) string {
	if printerName != nil {
		if name := strings.TrimSpace(*printerName); name != "" {
			return name
		}
	}
	return s.preferredTarget(ctx)
}

// preferredTarget returns the stored receipt printer, or "" for the default.
// A settings failure never blocks printing.
func (s *PrintService) preferredTarget(ctx context.Context) string {
	if s.settings == nil {
		return ""
	}
	name, err := s.settings.GetPreferredPrinter(ctx)
	if err != nil {
		s.logger.Warn("Failed to read preferred printer, using default", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(name)
}

// =============================================================================
// Printer Directory Operations
// =============================================================================

// CheckPrinterAvailable reports whether a default printer is configured
func (s *PrintService) CheckPrinterAvailable(ctx context.Context) (bool, error) {
	if err := s.checkPlatform(); err != nil {
		return false, err
	}

	_, err := s.directory.DefaultPrinter(ctx)
	if err != nil {
		if printing.IsKind(err, printing.KindNoDefaultPrinter) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetDefaultPrinter returns the OS default printer name
func (s *PrintService) GetDefaultPrinter(ctx context.Context) (string, error) {
	if err := s.checkPlatform(); err != nil {
		return "", err
	}
	return s.directory.DefaultPrinter(ctx)
}

// ListPrinters returns every installed printer. A failing OS query yields an
// empty list so the UI can still render its printer picker.
func (s *PrintService) ListPrinters(ctx context.Context) ([]PrinterDTO, error) {
	if err := s.checkPlatform(); err != nil {
		return nil, err
	}

	printers, err := s.directory.ListPrinters(ctx)
	if err != nil {
		if printing.IsKind(err, printing.KindOSQueryFailed) {
			s.logger.Warn("Printer query failed, returning empty list", zap.Error(err))
			return []PrinterDTO{}, nil
		}
		return nil, err
	}

	return ToPrinterDTOs(printers, s.guard), nil
}

// =============================================================================
// Preferred Printer Operations
// =============================================================================

// GetPreferredPrinter returns the configured receipt printer
func (s *PrintService) GetPreferredPrinter(ctx context.Context) (*PreferredPrinterResponse, error) {
	if err := s.checkPlatform(); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return &PreferredPrinterResponse{}, nil
	}

	name, err := s.settings.GetPreferredPrinter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get preferred printer: %w", err)
	}
	name = strings.TrimSpace(name)
	return &PreferredPrinterResponse{Name: name, IsSet: name != ""}, nil
}

// SetPreferredPrinter stores the receipt printer. Virtual printers are
// refused; an empty name clears the setting.
func (s *PrintService) SetPreferredPrinter(ctx context.Context, req SetPreferredPrinterRequest) (*PreferredPrinterResponse, error) {
	if err := s.checkPlatform(); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return nil, fmt.Errorf("failed to set preferred printer: no settings store configured")
	}

	name := strings.TrimSpace(req.Name)
	if name != "" {
		if err := s.guard.Check(name); err != nil {
			return nil, err
		}
	}

	if err := s.settings.SetPreferredPrinter(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to set preferred printer: %w", err)
	}

	s.logger.Info("Preferred printer updated", zap.String("printer", name))
	return &PreferredPrinterResponse{Name: name, IsSet: name != ""}, nil
}
