package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finstress/internal/core"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Generative model
	GeminiAPIKey        string
	ModelName           string
	GenerationCacheSize int
	GenerationCacheTTL  time.Duration

	// Classification
	EssentialCategories []string
	VariableCategories  []string
	TimeFrameMonths     int

	// Google Sheets budget export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsFile string

	// Worker
	WorkerConcurrency int
	WorkerInterval    time.Duration
	WorkerMaxAttempts int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finstress.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finstress"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "recommendations"),

		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		ModelName:           getEnv("MODEL_NAME", "gemini-2.0-flash"),
		GenerationCacheSize: getEnvInt("GENERATION_CACHE_SIZE", 256),
		GenerationCacheTTL:  getEnvDuration("GENERATION_CACHE_TTL", 10*time.Minute),

		EssentialCategories: getEnvList("ESSENTIAL_CATEGORIES", core.DefaultEssentialCategories),
		VariableCategories:  getEnvList("VARIABLE_CATEGORIES", core.DefaultVariableCategories),
		TimeFrameMonths:     getEnvInt("TIME_FRAME_MONTHS", core.DefaultTimeFrameMonths),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Budgets"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerInterval:    getEnvDuration("WORKER_INTERVAL", time.Minute),
		WorkerMaxAttempts: getEnvInt("WORKER_MAX_ATTEMPTS", 5),
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GeminiAPIKey != "" && strings.TrimSpace(c.ModelName) == "" {
		errors = append(errors, "model name cannot be empty when GEMINI_API_KEY is set")
	}
	if c.GenerationCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid generation cache size %d: must be non-negative", c.GenerationCacheSize))
	}
	if c.GenerationCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid generation cache ttl %v: must be non-negative", c.GenerationCacheTTL))
	}

	if len(c.EssentialCategories) == 0 {
		errors = append(errors, "essential categories cannot be empty")
	}
	if len(c.VariableCategories) == 0 {
		errors = append(errors, "variable categories cannot be empty")
	}
	if c.TimeFrameMonths < 0 {
		errors = append(errors, fmt.Sprintf("invalid time frame %d: must be non-negative", c.TimeFrameMonths))
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid worker concurrency %d: must be between 1 and 64", c.WorkerConcurrency))
	}
	if c.WorkerInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid worker interval %v: must be at least 1 second", c.WorkerInterval))
	}
	if c.WorkerMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid worker max attempts %d: must be at least 1", c.WorkerMaxAttempts))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// GenerationEnabled reports whether a model key is configured.
func (c *Config) GenerationEnabled() bool {
	return c.GeminiAPIKey != ""
}

// SheetsExportEnabled reports whether budgets should be mirrored to a spreadsheet.
func (c *Config) SheetsExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
