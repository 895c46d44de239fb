package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Catalog   CatalogConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Printing  PrintingConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
	File   string // log file tee; empty means <data_dir>/medbill.log, "-" disables it
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	DataDir string
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
}

// CatalogConfig holds medicine catalog settings
type CatalogConfig struct {
	BundlePath string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
}

// PrintingConfig holds silent printing settings
type PrintingConfig struct {
	Directory       string        // powershell or winspool
	Spooler         string        // powershell or winspool
	Engine          string        // chromium or mshtml
	Strategies      []string      // ordered strategy chain
	EngineTimeout   time.Duration // per-job render timeout
	SettleDelay     time.Duration // wait after the engine hands off the job
	BrowserPath     string        // explicit Edge/Chrome binary
	PowerShellPath  string
	NoSandbox       bool
	TempDir         string // job file directory, defaults to the OS temp dir
	TempFileName    string
	RawCodePage     string   // winspool spooler only
	VirtualPrinters []string // name fragments refused as print targets
	PaddingLines    int
	FormFeed        bool
	ForceEnable     bool // run printing on non-Windows hosts
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	LogsEnabled       bool
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MEDBILL_ prefix (e.g., MEDBILL_PRINTING_ENGINE)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "medbill"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	return fromViper(v)
}

// LoadFile loads configuration from an explicit TOML file
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("MEDBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be told apart from an explicit
	// false after reading, so they are registered up front.
	v.SetDefault("printing.form_feed", true)
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.logs_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Host:    v.GetString("app.host"),
			Port:    v.GetString("app.port"),
			DataDir: v.GetString("app.data_dir"),
		},
		Database: DatabaseConfig{
			Path:         v.GetString("database.path"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
			BusyTimeout:  v.GetDuration("database.busy_timeout"),
		},
		Catalog: CatalogConfig{
			BundlePath: v.GetString("catalog.bundle_path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
			File:   v.GetString("log.file"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		},
		Printing: PrintingConfig{
			Directory:       v.GetString("printing.directory"),
			Spooler:         v.GetString("printing.spooler"),
			Engine:          v.GetString("printing.engine"),
			Strategies:      v.GetStringSlice("printing.strategies"),
			EngineTimeout:   v.GetDuration("printing.engine_timeout"),
			SettleDelay:     v.GetDuration("printing.settle_delay"),
			BrowserPath:     v.GetString("printing.browser_path"),
			PowerShellPath:  v.GetString("printing.powershell_path"),
			NoSandbox:       v.GetBool("printing.no_sandbox"),
			TempDir:         v.GetString("printing.temp_dir"),
			TempFileName:    v.GetString("printing.temp_file_name"),
			RawCodePage:     v.GetString("printing.raw_codepage"),
			VirtualPrinters: v.GetStringSlice("printing.virtual_printers"),
			PaddingLines:    v.GetInt("printing.padding_lines"),
			FormFeed:        v.GetBool("printing.form_feed"),
			ForceEnable:     v.GetBool("printing.force_enable"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	// padding_lines = 0 is a valid setting, so only fill it when unset
	if !v.IsSet("printing.padding_lines") {
		cfg.Printing.PaddingLines = DefaultPaddingLines
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultPaddingLines is the blank line count that feeds a receipt past the
// tear bar on common dot-matrix printers
const DefaultPaddingLines = 4

// DefaultDataDir returns the per-user MedBill data directory
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "MedBill")
	}
	return "data"
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "medbill-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Host == "" {
		cfg.App.Host = "127.0.0.1"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8765"
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = DefaultDataDir()
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.App.DataDir, "medbill.db")
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 1
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 1
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = 5 * time.Second
	}
	if cfg.Catalog.BundlePath == "" {
		cfg.Catalog.BundlePath = filepath.Join("resources", "medicines-bundle.db")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.App.DataDir, "medbill.log")
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// must outlast a render engine timeout plus the raw fallback
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 5 << 20 // 5MB
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		// the desktop shell serves its UI from these origins
		cfg.HTTP.CORSAllowOrigins = []string{"tauri://localhost", "http://tauri.localhost", "http://localhost:1420"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.Printing.Directory == "" {
		cfg.Printing.Directory = "powershell"
	}
	if cfg.Printing.Spooler == "" {
		cfg.Printing.Spooler = "powershell"
	}
	if cfg.Printing.Engine == "" {
		cfg.Printing.Engine = "chromium"
	}
	if len(cfg.Printing.Strategies) == 0 {
		cfg.Printing.Strategies = []string{"engine", "raw"}
	}
	if cfg.Printing.EngineTimeout == 0 {
		cfg.Printing.EngineTimeout = 10 * time.Second
	}
	if cfg.Printing.TempFileName == "" {
		cfg.Printing.TempFileName = "velan_medicals_bill.html"
	}

	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "medbill-backend"
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

var (
	validBackends   = map[string]bool{"powershell": true, "winspool": true}
	validEngines    = map[string]bool{"chromium": true, "mshtml": true}
	validStrategies = map[string]bool{"engine": true, "raw": true}
)

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	// The API has no authentication and must stay on the loopback interface
	if c.App.Env == "production" && c.App.Host != "127.0.0.1" && c.App.Host != "localhost" {
		return fmt.Errorf("app.host must be a loopback address in production, got %q", c.App.Host)
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return fmt.Errorf("http.cors_allow_origins cannot be '*'")
		}
	}

	if !validBackends[strings.ToLower(c.Printing.Directory)] {
		return fmt.Errorf("printing.directory must be powershell or winspool, got %q", c.Printing.Directory)
	}
	if !validBackends[strings.ToLower(c.Printing.Spooler)] {
		return fmt.Errorf("printing.spooler must be powershell or winspool, got %q", c.Printing.Spooler)
	}
	if !validEngines[strings.ToLower(c.Printing.Engine)] {
		return fmt.Errorf("printing.engine must be chromium or mshtml, got %q", c.Printing.Engine)
	}
	seen := make(map[string]bool, len(c.Printing.Strategies))
	for _, s := range c.Printing.Strategies {
		s = strings.ToLower(s)
		if !validStrategies[s] {
			return fmt.Errorf("printing.strategies: unknown strategy %q", s)
		}
		if seen[s] {
			return fmt.Errorf("printing.strategies: duplicate strategy %q", s)
		}
		seen[s] = true
	}
	if c.Printing.EngineTimeout < 0 {
		return fmt.Errorf("printing.engine_timeout cannot be negative")
	}
	if c.Printing.PaddingLines < 0 {
		return fmt.Errorf("printing.padding_lines cannot be negative")
	}
	if strings.ContainsAny(c.Printing.TempFileName, `/\`) {
		return fmt.Errorf("printing.temp_file_name must be a bare file name, got %q", c.Printing.TempFileName)
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Addr returns the HTTP listen address
func (a *AppConfig) Addr() string {
	return a.Host + ":" + a.Port
}

// LogFilePath returns the log tee path, or "" when the tee is disabled
func (l *LogConfig) LogFilePath() string {
	if l.File == "-" {
		return ""
	}
	return l.File
}

// DSN returns the go-sqlite3 connection string. Foreign keys are enforced
// and WAL lets the UI read while a bill is being written.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL",
		filepath.ToSlash(d.Path), d.BusyTimeout.Milliseconds())
}
