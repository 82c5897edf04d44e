package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendREST   = "rest"
	BackendMemory = "memory"

	TokenStoreMemory = "memory"
	TokenStoreSQLite = "sqlite"

	ReportsSourceSample = "sample"
	ReportsSourceAPI    = "api"
)

type Config struct {
	// Remote API
	APIBaseURL string
	APITimeout time.Duration

	// Backend selection
	DataBackend string

	// Token persistence
	TokenStore  string
	TokenDBPath string

	// AMQP (optional event forwarding)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets (optional report export)
	GoogleSpreadsheetID      string
	GoogleReportSheet        string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Reports
	ReportsSource string

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	return &Config{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:2000/api"),
		APITimeout: getEnvDuration("API_TIMEOUT", 0),

		DataBackend: getEnv("DATA_BACKEND", BackendREST),

		TokenStore:  getEnv("TOKEN_STORE", TokenStoreSQLite),
		TokenDBPath: getEnv("TOKEN_DB_PATH", defaultTokenDBPath()),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budgetbuddy"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "client_events"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleReportSheet:        getEnv("GOOGLE_REPORT_SHEET", "Reports"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		ReportsSource: getEnv("REPORTS_SOURCE", ReportsSourceSample),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// ExportEnabled reports whether report export to Google Sheets is configured.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{BackendREST, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate API base URL if backend is rest
	if c.DataBackend == BackendREST {
		if c.APIBaseURL == "" {
			errors = append(errors, "API base URL cannot be empty when using rest backend")
		} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.APITimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must not be negative", c.APITimeout))
	}

	// Validate token store
	validStores := []string{TokenStoreMemory, TokenStoreSQLite}
	if !slices.Contains(validStores, c.TokenStore) {
		errors = append(errors, fmt.Sprintf("invalid token store '%s': must be one of %v", c.TokenStore, validStores))
	}
	if c.TokenStore == TokenStoreSQLite {
		if c.TokenDBPath == "" {
			errors = append(errors, "token database path cannot be empty when using sqlite token store")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.TokenDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o700); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create token database directory '%s': %v", dir, err))
					}
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

	// Validate Google Sheets export if enabled
	if c.ExportEnabled() {
		if c.GoogleReportSheet == "" {
			errors = append(errors, "Google report sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for report export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	validSources := []string{ReportsSourceSample, ReportsSourceAPI}
	if !slices.Contains(validSources, c.ReportsSource) {
		errors = append(errors, fmt.Sprintf("invalid reports source '%s': must be one of %v", c.ReportsSource, validSources))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultTokenDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "./data/budgetbuddy.db"
	}
	return filepath.Join(dir, "budgetbuddy", "session.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
