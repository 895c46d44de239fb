package handler

import (
	catalogapp "github.com/Mugunth140/medical-billing/internal/application/catalog"
	"github.com/Mugunth140/medical-billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes the bundled medicine catalog
type CatalogHandler struct {
	BaseHandler
	medicineService *catalogapp.MedicineService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(medicineService *catalogapp.MedicineService) *CatalogHandler {
	return &CatalogHandler{medicineService: medicineService}
}

// ImportBundle seeds an empty catalog from the bundled database. Repeat
// calls return the existing count.
func (h *CatalogHandler) ImportBundle(c *gin.Context) {
	count, err := h.medicineService.ImportBundledMedicines(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.ImportResponse{Count: count})
}

// Count returns the number of active medicines
func (h *CatalogHandler) Count(c *gin.Context) {
	count, err := h.medicineService.GetMedicinesCount(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, catalogapp.CountResponse{Count: count})
}

// CatalogRoutes creates the route group for catalog endpoints
func CatalogRoutes(handler *CatalogHandler) *router.DomainGroup {
	group := router.NewDomainGroup("catalog", "/catalog")
	medicines := group.Group("medicines", "/medicines")
	medicines.POST("/import-bundle", handler.ImportBundle)
	medicines.GET("/count", handler.Count)
	return group
}
