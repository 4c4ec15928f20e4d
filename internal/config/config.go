// Package config loads runtime settings from the environment with sane
// local-development defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port              string
	RequestsPerMinute int

	// Identity
	AllowAnonymous bool

	// Database
	SQLiteDBPath string

	// AMQP event stream; empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export journal (worker only).
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string

	// Analytics
	AnalyticsCacheTTL  time.Duration
	AnalyticsCacheSize int
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8081"),
		RequestsPerMinute: getEnvInt("RATE_LIMIT_RPM", 60),

		AllowAnonymous: getEnvBool("AUTH_ALLOW_ANONYMOUS", false),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Journal"),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AnalyticsCacheTTL:  getEnvDuration("ANALYTICS_CACHE_TTL", 5*time.Minute),
		AnalyticsCacheSize: getEnvInt("ANALYTICS_CACHE_SIZE", 256),
	}
}

// Validate checks the loaded configuration, collecting every problem into a
// single error so startup logs show them all at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestsPerMinute < 1 {
		problems = append(problems, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RequestsPerMinute))
	}

	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is set")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is set")
		}
	}

	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			problems = append(problems, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}

	if c.AnalyticsCacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid analytics cache TTL %v: must be at least 1 second", c.AnalyticsCacheTTL))
	}
	if c.AnalyticsCacheSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid analytics cache size %d: must be at least 1", c.AnalyticsCacheSize))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// ValidateWorker adds the export worker's requirements on top of Validate.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}

	var problems []string
	if c.AMQPURL == "" {
		problems = append(problems, "AMQP_URL is required for the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		problems = append(problems, "GOOGLE_SPREADSHEET_ID is required for the export worker")
	}
	if len(problems) > 0 {
		return fmt.Errorf("worker configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
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
