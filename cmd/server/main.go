package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/Mugunth140/medical-billing/internal/application/catalog"
	printingapp "github.com/Mugunth140/medical-billing/internal/application/printing"
	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/config"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/logger"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/migration"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/persistence"
	printinfra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/telemetry"
	"github.com/Mugunth140/medical-billing/internal/interfaces/http/api"
	"github.com/Mugunth140/medical-billing/internal/interfaces/http/handler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// activeMedicinesInterval is how often the catalog gauge is refreshed
const activeMedicinesInterval = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		panic("Failed to create data directory: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.LogFilePath(),
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("MedBill initialized. Data directory: "+cfg.App.DataDir,
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("addr", cfg.App.Addr()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    handler.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    handler.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    handler.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	log = telemetry.BridgeLogger(log, telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: loggerProvider,
		Level:          zapcore.InfoLevel,
	})

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := migration.ApplyAll(cfg.Database.DSN(), log.Named("migrate")); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	if cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		if err := telemetry.NewDBTracingPlugin(tracingCfg, log).RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Printing
	backend, err := printinfra.NewBackend(printinfra.BackendOptions{
		Directory:      cfg.Printing.Directory,
		Spooler:        cfg.Printing.Spooler,
		Engine:         cfg.Printing.Engine,
		PowerShellPath: cfg.Printing.PowerShellPath,
		BrowserPath:    cfg.Printing.BrowserPath,
		EngineTimeout:  cfg.Printing.EngineTimeout,
		SettleDelay:    cfg.Printing.SettleDelay,
		RawCodePage:    cfg.Printing.RawCodePage,
		SpoolDir:       cfg.Printing.TempDir,
		NoSandbox:      cfg.Printing.NoSandbox,
		Logger:         log.Named("printing"),
	}, nil)
	if err != nil {
		log.Fatal("Failed to build print backend", zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("Error closing render engine", zap.Error(err))
		}
	}()

	strategies, err := printingapp.BuildStrategies(cfg.Printing.Strategies, printingapp.StrategyDeps{
		Engine:  backend.Engine,
		Spooler: backend.Spooler,
		JobFile: printinfra.NewJobFile(cfg.Printing.TempDir, cfg.Printing.TempFileName, log.Named("jobfile")),
		Extractor: printinfra.NewExtractor(printinfra.ExtractorOptions{
			PaddingLines: cfg.Printing.PaddingLines,
			FormFeed:     cfg.Printing.FormFeed,
		}),
		EngineTimeout: cfg.Printing.EngineTimeout,
	})
	if err != nil {
		log.Fatal("Invalid print strategies", zap.Error(err))
	}

	guard := printing.NewVirtualPrinterGuard(cfg.Printing.VirtualPrinters)
	dispatcher := printingapp.NewDispatcher(backend.Directory, guard, strategies, log.Named("dispatcher"))
	settingRepo := persistence.NewGormSettingRepository(db.DB)
	printEnabled := printingapp.PlatformSupported(cfg.Printing.ForceEnable)
	printService := printingapp.NewPrintService(dispatcher, backend.Directory, settingRepo, guard, printEnabled, log.Named("print"))
	if !printEnabled {
		log.Warn("Silent printing is only supported on Windows; print endpoints will answer 501")
	}

	// Catalog
	medicineRepo := persistence.NewGormMedicineRepository(db.DB)
	medicineService := catalogapp.NewMedicineService(medicineRepo, cfg.Catalog.BundlePath, log.Named("catalog"))

	// Business metrics
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:           meterProvider.Meter("medbill.business"),
			Logger:          log,
			CatalogProvider: medicineService,
		})
		if err != nil {
			log.Warn("Failed to create business metrics", zap.Error(err))
		} else {
			dispatcher.SetBusinessMetrics(businessMetrics)
			medicineService.SetBusinessMetrics(businessMetrics)
			businessMetrics.StartPeriodicCollection(ctx, activeMedicinesInterval)
			defer businessMetrics.Stop()
		}
	}

	if _, err := medicineService.ImportBundledMedicines(ctx); err != nil {
		log.Warn("Medicine catalog was not seeded", zap.Error(err))
	}

	// HTTP
	var tp trace.TracerProvider
	if tracerProvider.IsEnabled() {
		tp = otel.GetTracerProvider()
	}
	engine := api.NewEngine(api.Deps{
		HTTP:            cfg.HTTP,
		ServiceName:     cfg.Telemetry.ServiceName,
		Release:         cfg.App.Env == "production",
		Logger:          log,
		PrintService:    printService,
		MedicineService: medicineService,
		DB:              db,
		TracerProvider:  tp,
		MeterProvider:   meterProvider,
	})

	srv := &http.Server{
		Addr:           cfg.App.Addr(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	cancel()

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down meter provider", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down logger provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
