package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error, fatal
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	FilePath   string // optional JSON copy of every entry; empty disables it
	TimeFormat string
}

// DefaultConfig is the development setup: colored console on stdout
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: defaultTimeFormat,
	}
}

// ProductionConfig suits the installed desktop build, where the console is
// usually hidden and the log file is the only record of what happened at
// the counter
func ProductionConfig(filePath string) *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		Output:     "stderr",
		FilePath:   filePath,
		TimeFormat: defaultTimeFormat,
	}
}

// New builds a zap logger from cfg. With FilePath set every entry is also
// appended to that file as JSON.
func New(cfg *Config) (*zap.Logger, error) {
	level := parseLevel(cfg.Level)
	cores := []zapcore.Core{
		zapcore.NewCore(createEncoder(cfg.Format, cfg.TimeFormat), createWriter(cfg.Output), level),
	}

	if cfg.FilePath != "" {
		file, err := openLogFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(createEncoder("json", cfg.TimeFormat), zapcore.AddSync(file), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// NewForEnvironment picks ProductionConfig for "production" and
// DefaultConfig otherwise
func NewForEnvironment(env, filePath string) (*zap.Logger, error) {
	if env == "production" {
		return New(ProductionConfig(filePath))
	}
	cfg := DefaultConfig()
	cfg.FilePath = filePath
	return New(cfg)
}

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
	"fatal":   zapcore.FatalLevel,
}

// parseLevel maps a level name to zap, defaulting to info
func parseLevel(level string) zapcore.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	return zapcore.InfoLevel
}

func createEncoder(format, timeFormat string) zapcore.Encoder {
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// createWriter resolves stdout, stderr or a file path. A file that cannot
// be opened falls back to stdout.
func createWriter(output string) zapcore.WriteSyncer {
	switch strings.ToLower(output) {
	case "stdout", "":
		return zapcore.Lock(os.Stdout)
	case "stderr":
		return zapcore.Lock(os.Stderr)
	}
	file, err := openLogFile(output)
	if err != nil {
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.AddSync(file)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// Sync flushes buffered entries. Console handles report spurious errors
// on some platforms, so callers usually ignore the result.
func Sync(logger *zap.Logger) error {
	return logger.Sync()
}
