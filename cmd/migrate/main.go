// Command migrate manages the MedBill SQLite schema outside of the server,
// which applies pending migrations on its own at startup.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Mugunth140/medical-billing/internal/infrastructure/config"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/logger"
	"github.com/Mugunth140/medical-billing/internal/infrastructure/migration"
	"go.uber.org/zap"
)

// defaultMigrationsPath is where create writes new files in a source checkout
var defaultMigrationsPath = filepath.Join("internal", "infrastructure", "migration", migration.EmbeddedDir)

var errUsage = errors.New("invalid usage")

// session is what a command runs against. migrator is nil for commands that
// do not touch the database.
type session struct {
	log       *zap.Logger
	out       io.Writer
	source    fs.FS
	sourceDir string
	writeDir  string
	migrator  *migration.Migrator
}

type command struct {
	needsDB bool
	run     func(s *session, args []string) error
}

var commands = map[string]command{
	"up":      {needsDB: true, run: func(s *session, _ []string) error { return s.migrator.Up() }},
	"down":    {needsDB: true, run: func(s *session, _ []string) error { return s.migrator.Down() }},
	"step":    {needsDB: true, run: runStep},
	"goto":    {needsDB: true, run: runGoto},
	"version": {needsDB: true, run: runVersion},
	"force":   {needsDB: true, run: runForce},
	"create":  {run: runCreate},
	"list":    {run: runList},
}

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	s := &session{
		log:       log,
		out:       os.Stdout,
		source:    migration.Embedded(),
		sourceDir: migration.EmbeddedDir,
		writeDir:  defaultMigrationsPath,
	}
	if migrationsPath != "" {
		abs, err := filepath.Abs(migrationsPath)
		if err != nil {
			log.Fatal("Invalid migrations path", zap.Error(err))
		}
		s.source, s.sourceDir, s.writeDir = os.DirFS(abs), ".", abs
	}

	if err := run(s, &cfg.Database, args); err != nil {
		if errors.Is(err, errUsage) {
			log.Error(err.Error())
			printUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

// run executes args[0], opening db only when the command needs it
func run(s *session, db *config.DatabaseConfig, args []string) error {
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if cmd.needsDB {
		m, err := openMigrator(s, db)
		if err != nil {
			return err
		}
		defer m.Close()
		s.migrator = m
	}

	s.log.Debug("Running migration command", zap.String("command", args[0]), zap.String("database", db.Path))
	return cmd.run(s, args[1:])
}

func openMigrator(s *session, cfg *config.DatabaseConfig) (*migration.Migrator, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	m, err := migration.NewWithSource(db, s.source, s.sourceDir, s.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

func oneArg(args []string, what string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("%w: %s required", errUsage, what)
	}
	return args[0], nil
}

func runStep(s *session, args []string) error {
	raw, err := oneArg(args, "step count")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n == 0 {
		return fmt.Errorf("%w: step count must be a non-zero integer, got %q", errUsage, raw)
	}
	return s.migrator.Steps(n)
}

func runGoto(s *session, args []string) error {
	raw, err := oneArg(args, "version")
	if err != nil {
		return err
	}
	version, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", errUsage, raw)
	}
	return s.migrator.GoTo(uint(version))
}

func runForce(s *session, args []string) error {
	raw, err := oneArg(args, "version")
	if err != nil {
		return err
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid version %q", errUsage, raw)
	}
	s.log.Warn("Forcing schema version; the schema itself is not changed", zap.Int("version", version))
	return s.migrator.Force(version)
}

func runVersion(s *session, _ []string) error {
	version, dirty, err := s.migrator.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		fmt.Fprintln(s.out, "no migrations applied")
		return nil
	}
	state := ""
	if dirty {
		state = " (dirty)"
	}
	fmt.Fprintf(s.out, "version %d%s\n", version, state)
	return nil
}

func runCreate(s *session, args []string) error {
	name, err := oneArg(args, "migration name")
	if err != nil {
		return err
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(s.writeDir, name, description)
	if err != nil {
		return err
	}
	s.log.Info("Migration created",
		zap.Uint("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func runList(s *session, _ []string) error {
	names, err := migration.ListMigrations(s.source, s.sourceDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "no migrations found")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(s.out, name)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `MedBill database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the current schema version
  force <version>       Record a version without running it
  create <name> [desc]  Write a new up/down file pair
  list                  List available migrations

Flags:
  -path string          Read migrations from a directory instead of the embedded set
  -log-level string     debug, info, warn or error (default info)

The database location comes from the usual configuration, e.g.
MEDBILL_APP_DATA_DIR or MEDBILL_DATABASE_PATH.

Examples:
  migrate up
  migrate step -1
  migrate create add_print_log "Keep a history of print jobs"
`)
}
