// Command printctl drives the receipt printer from a terminal, using the same
// print service as the HTTP API. It is meant for shop setup and support.
package main

import (
	"fmt"
	"os"

	printingapp "github.com/Mugunth140/medical-billing/internal/application/printing"
	"github.com/Mugunth140/medical-billing/internal/domain/printing"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/config"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/logger"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/migration"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/persistence"
	printinfra "github.com/Mugunth140/medical-billing/internal/infrastructure/printing"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Version information (populated at build time)
var version = "dev"

func main() {
	app := newApp(&runner{open: openService, out: os.Stdout, in: os.Stdin})
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "printctl:", err)
		os.Exit(1)
	}
}

// openService builds the print service from the normal configuration. The
// database is opened only for the preferred printer setting.
func openService(c *cli.Context) (*printingapp.PrintService, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		return nil, nil, err
	}

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
		Logger:         log,
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	strategies, err := printingapp.BuildStrategies(cfg.Printing.Strategies, printingapp.StrategyDeps{
		Engine:  backend.Engine,
		Spooler: backend.Spooler,
		JobFile: printinfra.NewJobFile(cfg.Printing.TempDir, cfg.Printing.TempFileName, log),
		Extractor: printinfra.NewExtractor(printinfra.ExtractorOptions{
			PaddingLines: cfg.Printing.PaddingLines,
			FormFeed:     cfg.Printing.FormFeed,
		}),
		EngineTimeout: cfg.Printing.EngineTimeout,
	})
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}

	closers := []func() error{backend.Close}

	// Without a readable database every job simply goes to the OS default
	var settings printing.PrinterSettingsRepository
	db, err := persistence.NewDatabase(&cfg.Database)
	if err == nil {
		if err = migration.ApplyAll(cfg.Database.DSN(), log); err == nil {
			settings = persistence.NewGormSettingRepository(db.DB)
		}
		closers = append(closers, db.Close)
	}
	if err != nil {
		log.Warn("Preferred printer setting unavailable", zap.Error(err))
	}

	guard := printing.NewVirtualPrinterGuard(cfg.Printing.VirtualPrinters)
	dispatcher := printingapp.NewDispatcher(backend.Directory, guard, strategies, log)
	service := printingapp.NewPrintService(dispatcher, backend.Directory, settings, guard,
		printingapp.PlatformSupported(cfg.Printing.ForceEnable), log)

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		_ = logger.Sync(log)
	}
	return service, cleanup, nil
}

func newApp(r *runner) *cli.App {
	printerFlag := &cli.StringFlag{
		Name:    "printer",
		Aliases: []string{"p"},
		Usage:   "target printer instead of the preferred or default one",
	}

	return &cli.App{
		Name:    "printctl",
		Usage:   "inspect printers and send receipts without a dialog",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a config.toml"},
			&cli.BoolFlag{Name: "verbose", Usage: "log debug output to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:   "printers",
				Usage:  "list installed printers",
				Action: r.printersAction,
			},
			{
				Name:   "default",
				Usage:  "show the OS default printer",
				Action: r.defaultAction,
			},
			{
				Name:   "check",
				Usage:  "exit non-zero when no default printer is set",
				Action: r.checkAction,
			},
			{
				Name:      "print",
				Usage:     "print an HTML bill",
				ArgsUsage: "<file.html>",
				Flags:     []cli.Flag{printerFlag},
				Action:    r.printAction,
			},
			{
				Name:      "raw",
				Usage:     "spool plain text, reading stdin when the file is -",
				ArgsUsage: "<file|->",
				Flags:     []cli.Flag{printerFlag},
				Action:    r.rawAction,
			},
			{
				Name:   "test",
				Usage:  "print a sample receipt",
				Flags:  []cli.Flag{printerFlag},
				Action: r.testAction,
			},
		},
	}
}
