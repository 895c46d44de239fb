// Package api assembles the gin engine that serves the MedBill desktop UI.
package api

import (
	catalogapp "github.com/Mugunth140/medical-billing/internal/application/catalog"
	printingapp "github.com/Mugunth140/medical-billing/internal/application/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/config"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/logger"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/telemetry"
	"github.com/Mugunth140/medical-billing/internal/interfaces/http/handler"
	"github.com/Mugunth140/medical-billing/internal/interfaces/http/middleware"
	"github.com/Mugunth140/medical-billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// quietPaths are polled by the UI every few seconds
var quietPaths = []string{
	"/health",
	"/api/v1/print/printers/default/available",
}

// Deps carries everything the engine needs. Services may be nil, in which
// case their routes are not mounted.
type Deps struct {
	HTTP            config.HTTPConfig
	ServiceName     string
	Release         bool
	Logger          *zap.Logger
	PrintService    *printingapp.PrintService
	MedicineService *catalogapp.MedicineService
	DB              handler.Pinger

	// TracerProvider and MeterProvider are optional; nil disables tracing
	// middleware and HTTP metrics respectively
	TracerProvider trace.TracerProvider
	MeterProvider  *telemetry.MeterProvider
}

// NewEngine builds the engine with middleware and every route mounted
func NewEngine(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(logger.Recovery(d.Logger))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORSWithConfig(corsConfig(d.HTTP)))
	engine.Use(middleware.Secure())
	if d.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(d.HTTP.MaxBodySize))
	}

	if d.TracerProvider != nil {
		tracing := middleware.DefaultTracingConfig()
		tracing.TracerProvider = d.TracerProvider
		if d.ServiceName != "" {
			tracing.ServiceName = d.ServiceName
		}
		engine.Use(middleware.TracingWithConfig(tracing), middleware.SpanAttributes())
	}
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: d.MeterProvider,
		Enabled:       d.MeterProvider != nil,
	}))
	engine.Use(logger.GinMiddleware(d.Logger, logger.WithQuietPaths(quietPaths...)))

	printingEnabled := d.PrintService != nil && d.PrintService.Enabled()
	systemHandler := handler.NewSystemHandler(d.DB, printingEnabled)
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithLogger(d.Logger))

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	if d.PrintService != nil {
		r.Register(handler.PrintRoutes(handler.NewPrintHandler(d.PrintService)))
	}
	if d.MedicineService != nil {
		r.Register(handler.CatalogRoutes(handler.NewCatalogHandler(d.MedicineService)))
	}

	r.Setup()
	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.CORSAllowOrigins
	}
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
