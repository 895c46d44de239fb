package handler

import (
	"strings"

	printingapp "github.com/Mugunth140/medical-billing/internal/application/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PrintHandler handles print-related API endpoints
type PrintHandler struct {
	BaseHandler
	printService *printingapp.PrintService
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(printService *printingapp.PrintService) *PrintHandler {
	return &PrintHandler{
		printService: printService,
	}
}

// =============================================================================
// Print Endpoints
// =============================================================================

// SilentPrint prints a finished HTML bill on the receipt printer without a
// dialog.
//
//	POST /print/silent {"markup": "<html>...</html>"}
func (h *PrintHandler) SilentPrint(c *gin.Context) {
	var req printingapp.SilentPrintRequest
	if !h.BindJSON(c, &req) {
		return
	}

	message, err := h.printService.SilentPrint(c.Request.Context(), req.Markup)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, printingapp.PrintResponse{Message: message})
}

// PrintRawText spools plain text, optionally to a named printer.
//
//	POST /print/raw {"text": "...", "printer_name": "EPSON TM-T82"}
func (h *PrintHandler) PrintRawText(c *gin.Context) {
	var req printingapp.RawPrintRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if req.PrinterName != nil && strings.TrimSpace(*req.PrinterName) != "" {
		var reqLogger *zap.Logger
		ctx, reqLogger = logger.WithPrinter(ctx, logger.GetGinLogger(c), *req.PrinterName)
		reqLogger.Debug("Raw print aimed at explicit printer")
	}

	message, err := h.printService.PrintRawText(ctx, req.Text, req.PrinterName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, printingapp.PrintResponse{Message: message})
}

// PrintTestPage prints a short sample receipt so the shop can check the
// printer setup. The body is optional.
//
//	POST /print/test {"printer_name": "Counter 2"}
func (h *PrintHandler) PrintTestPage(c *gin.Context) {
	var req printingapp.TestPageRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	message, err := h.printService.PrintTestPage(c.Request.Context(), req.PrinterName)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, printingapp.PrintResponse{Message: message})
}

// =============================================================================
// Printer Directory Endpoints
// =============================================================================

// CheckPrinterAvailable reports whether the OS has a default printer. A
// missing default is a normal answer, not an error.
func (h *PrintHandler) CheckPrinterAvailable(c *gin.Context) {
	available, err := h.printService.CheckPrinterAvailable(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, printingapp.PrinterAvailabilityResponse{Available: available})
}

// GetDefaultPrinter returns the OS default printer name
func (h *PrintHandler) GetDefaultPrinter(c *gin.Context) {
	name, err := h.printService.GetDefaultPrinter(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, printingapp.DefaultPrinterResponse{Name: name})
}

// ListPrinters returns the installed printers with default and virtual flags
func (h *PrintHandler) ListPrinters(c *gin.Context) {
	printers, err := h.printService.ListPrinters(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithTotal(c, printers, int64(len(printers)))
}

// =============================================================================
// Preferred Printer Endpoints
// =============================================================================

// GetPreferredPrinter returns the configured receipt printer
func (h *PrintHandler) GetPreferredPrinter(c *gin.Context) {
	resp, err := h.printService.GetPreferredPrinter(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetPreferredPrinter stores or clears the receipt printer.
//
//	PUT /print/settings/preferred-printer {"name": "EPSON TM-T82"}
func (h *PrintHandler) SetPreferredPrinter(c *gin.Context) {
	var req printingapp.SetPreferredPrinterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.printService.SetPreferredPrinter(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
