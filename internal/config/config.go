package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"centrefunds/internal/core"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath   string
	SeedCategories bool

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Allocation rules
	SplitCategoryCode string

	// Report export: sheets, memory or none. Empty picks sheets when a
	// spreadsheet ID is set.
	ReportBackend       string
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Period closing
	CloseSchedule string
	CloseInterval time.Duration

	// Preview cache
	PreviewCacheTTL  time.Duration
	PreviewCacheSize int

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8081"),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/centrefunds.db"),
		SeedCategories: getEnvBool("SEED_CATEGORIES", true),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "centrefunds"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "allocation_runs"),

		SplitCategoryCode: getEnv("SPLIT_CATEGORY_CODE", core.DefaultSplitCategoryCode),

		ReportBackend:       getEnv("REPORT_BACKEND", ""),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Allocations"),

		CloseSchedule: getEnv("CLOSE_SCHEDULE", "monthly"),
		CloseInterval: getEnvDuration("CLOSE_INTERVAL", time.Hour),

		PreviewCacheTTL:  getEnvDuration("PREVIEW_CACHE_TTL", 5*time.Minute),
		PreviewCacheSize: getEnvInt("PREVIEW_CACHE_SIZE", 64),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite path and make sure its directory exists
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if strings.TrimSpace(c.SplitCategoryCode) == "" {
		errors = append(errors, "split category code cannot be empty")
	}

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}

	switch c.ReportBackend {
	case "", "none", "memory":
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when REPORT_BACKEND is sheets")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid report backend '%s': must be sheets, memory or none", c.ReportBackend))
	}

	validSchedules := []string{"daily", "weekly", "monthly"}
	isValidSchedule := false
	for _, s := range validSchedules {
		if c.CloseSchedule == s {
			isValidSchedule = true
			break
		}
	}
	if !isValidSchedule {
		errors = append(errors, fmt.Sprintf("invalid close schedule '%s': must be one of %v", c.CloseSchedule, validSchedules))
	}

	if c.CloseInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid close interval %v: must be at least 1 second", c.CloseInterval))
	} else if c.CloseInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid close interval %v: must be at most 24 hours", c.CloseInterval))
	}

	if c.PreviewCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid preview cache size %d: must be at least 1", c.PreviewCacheSize))
	}
	if c.PreviewCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid preview cache TTL %v: must not be negative", c.PreviewCacheTTL))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
