package handler

import (
	"github.com/Mugunth140/medical-billing/internal/interfaces/http/router"
)

// PrintRoutes creates the route group for print-related endpoints
func PrintRoutes(handler *PrintHandler) *router.DomainGroup {
	group := router.NewDomainGroup("print", "/print")

	group.POST("/silent", handler.SilentPrint)
	group.POST("/raw", handler.PrintRawText)
	group.POST("/test", handler.PrintTestPage)

	group.GET("/printers", handler.ListPrinters)
	group.GET("/printers/default", handler.GetDefaultPrinter)
	group.GET("/printers/default/available", handler.CheckPrinterAvailable)

	group.GET("/settings/preferred-printer", handler.GetPreferredPrinter)
	group.PUT("/settings/preferred-printer", handler.SetPreferredPrinter)

	return group
}
