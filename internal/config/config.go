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

// Supported backends
var (
	DataBackends = []string{"memory", "sqlite", "firestore"}
	AuthBackends = []string{"memory", "firebase"}
)

const maxUploadLimit = 50 << 20

type Config struct {
	// HTTP Server
	Port               string
	MaxUploadBytes     int64
	SessionTTL         time.Duration
	RateLimitPerMinute int

	// Backend selection
	DataBackend string
	AuthBackend string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Firebase / Google Cloud
	FirebaseProjectID     string
	FirebaseAPIKey        string
	GoogleCredentialsFile string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Google Sheets export (optional)
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Company profile cache
	ProfileCacheTTL time.Duration

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		SessionTTL:         getEnvDuration("SESSION_TTL", 12*time.Hour),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		AuthBackend: getEnv("AUTH_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/orcamento.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "orcamento"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_profiles"),

		FirebaseProjectID:     getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAPIKey:        getEnv("FIREBASE_API_KEY", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", getEnv("API_KEY", "")),
		GeminiModel:  getEnv("GEMINI_MODEL", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),

		ProfileCacheTTL: getEnvDuration("PROFILE_CACHE_TTL", 10*time.Minute),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),
	}

	return cfg
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(DataBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, DataBackends))
	}
	if !slices.Contains(AuthBackends, c.AuthBackend) {
		errors = append(errors, fmt.Sprintf("invalid auth backend '%s': must be one of %v", c.AuthBackend, AuthBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
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
	}

	if c.DataBackend == "firestore" && c.FirebaseProjectID == "" {
		errors = append(errors, "FIREBASE_PROJECT_ID is required when using firestore backend")
	}
	if c.AuthBackend == "firebase" {
		if c.FirebaseProjectID == "" {
			errors = append(errors, "FIREBASE_PROJECT_ID is required when using firebase auth")
		}
		if c.FirebaseAPIKey == "" {
			errors = append(errors, "FIREBASE_API_KEY is required when using firebase auth")
		}
	}
	if c.GoogleCredentialsFile != "" {
		if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsFile))
		}
	}

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

	if c.MaxUploadBytes < 1 || c.MaxUploadBytes > maxUploadLimit {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be between 1 and %d bytes", c.MaxUploadBytes, maxUploadLimit))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.ProfileCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid profile cache TTL %v: must be positive", c.ProfileCacheTTL))
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
