package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Djeyff/bamboojam-os/internal/auth"
)

// DatabaseIDs holds the Notion database ID per record set. An empty ID
// disables that data set (queries return empty, not errors).
type DatabaseIDs struct {
	Expenses     string `json:"expenses"`
	Revenues     string `json:"revenues"`
	Periods      string `json:"periods"`
	SylvieLedger string `json:"sylvieLedger"`
	FredLedger   string `json:"fredLedger"`
}

type Config struct {
	// HTTP server
	Port string
	Env  string // development | production

	// Access gate PINs; empty disables the role, all empty = open mode.
	AdminPIN  string
	FredPIN   string
	SylviePIN string

	// Notion
	NotionToken string
	Databases   DatabaseIDs

	// AMQP (entry sync)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Entry outbox
	SQLiteDBPath string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	// Backend selection
	DataBackend string // notion | memory
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		AdminPIN:  os.Getenv("ADMIN_PIN"),
		FredPIN:   os.Getenv("FRED_PIN"),
		SylviePIN: os.Getenv("SYLVIE_PIN"),

		NotionToken: os.Getenv("NOTION_TOKEN"),
		Databases:   loadDatabases(),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bamboojam"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_entries"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bamboojam.db"),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
	}

	return cfg
}

// loadDatabases reads database IDs from the BAMBOOJAM_CONFIG JSON blob
// (the original deployment shape: {"databases": {...}}), falling back to
// individual NOTION_DB_* variables.
func loadDatabases() DatabaseIDs {
	if blob := os.Getenv("BAMBOOJAM_CONFIG"); blob != "" {
		var wrapper struct {
			Databases DatabaseIDs `json:"databases"`
		}
		if err := json.Unmarshal([]byte(blob), &wrapper); err == nil {
			return wrapper.Databases
		}
	}
	return DatabaseIDs{
		Expenses:     os.Getenv("NOTION_DB_EXPENSES"),
		Revenues:     os.Getenv("NOTION_DB_REVENUES"),
		Periods:      os.Getenv("NOTION_DB_PERIODS"),
		SylvieLedger: os.Getenv("NOTION_DB_SYLVIE_LEDGER"),
		FredLedger:   os.Getenv("NOTION_DB_FRED_LEDGER"),
	}
}

// Secrets returns the gate secrets in auth's shape.
func (c *Config) Secrets() auth.Secrets {
	return auth.Secrets{Admin: c.AdminPIN, Fred: c.FredPIN, Sylvie: c.SylviePIN}
}

// Production reports whether cookies must be marked Secure.
func (c *Config) Production() bool { return c.Env == "production" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Env {
	case "development", "production":
	default:
		errors = append(errors, fmt.Sprintf("invalid env '%s': must be 'development' or 'production'", c.Env))
	}

	switch c.DataBackend {
	case "memory":
	case "notion":
		if c.NotionToken == "" {
			errors = append(errors, "NOTION_TOKEN is required when using notion backend")
		}
		if (c.Databases == DatabaseIDs{}) {
			errors = append(errors, "no Notion database IDs configured (set BAMBOOJAM_CONFIG or NOTION_DB_* variables)")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory notion]", c.DataBackend))
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
