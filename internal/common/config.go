package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	PDF      PDFConfig
	Output   OutputConfig
	Database DatabaseConfig
	Log      LogConfig

	// TuningFile optionally overrides the layout tolerances (YAML).
	TuningFile string
}

// PDFConfig selects how PDF pages are turned into text and word boxes.
type PDFConfig struct {
	Backend     string // "auto" | "pdftotext" | "native"
	Pdftotext   string
	ExecTimeout time.Duration
}

// OutputConfig holds workbook output settings
type OutputConfig struct {
	Path string
}

// DatabaseConfig holds the optional result store settings
type DatabaseConfig struct {
	DSN         string // empty disables persistence
	MaxConns    int32
	DialTimeout time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" | "text"
}

const (
	BackendAuto      = "auto"
	BackendPdftotext = "pdftotext"
	BackendNative    = "native"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		PDF: PDFConfig{
			Backend:     strings.ToLower(getEnv("BI_PDF_BACKEND", BackendAuto)),
			Pdftotext:   getEnv("BI_PDFTOTEXT", "pdftotext"),
			ExecTimeout: getEnvAsDuration("BI_EXEC_TIMEOUT", 2*time.Minute),
		},
		Output: OutputConfig{
			Path: getEnv("BI_OUTPUT", ""),
		},
		Database: DatabaseConfig{
			DSN:         getEnv("BI_DB_URL", ""),
			MaxConns:    getEnvAsInt32("BI_DB_MAX_CONNS", 4),
			DialTimeout: getEnvAsDuration("BI_DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("BI_LOG_LEVEL", "info"),
			Format: getEnv("BI_LOG_FORMAT", "json"),
		},
		TuningFile: getEnv("BI_TUNING_FILE", ""),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("BI_PDF_BACKEND", c.PDF.Backend, OneOf(BackendAuto, BackendPdftotext, BackendNative)).
		Field("BI_PDFTOTEXT", c.PDF.Pdftotext, Required).
		Field("BI_EXEC_TIMEOUT", c.PDF.ExecTimeout, Positive).
		Field("BI_LOG_FORMAT", c.Log.Format, OneOf("json", "text")).
		Field("BI_LOG_LEVEL", c.Log.Level, Level)
	if c.Database.DSN != "" {
		v.Field("BI_DB_MAX_CONNS", c.Database.MaxConns, Positive)
	}
	return v.Err("CONFIG_ERROR", ErrInvalidConfig)
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
	}
	return lvl, nil
}

// NewLogger builds the process logger from LogConfig.
func NewLogger(cfg LogConfig, w *os.File) *slog.Logger {
	lvl, _ := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: lvl}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
