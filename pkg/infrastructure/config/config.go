package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/vsinha/wms/pkg/infrastructure/logging"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config aggregates the runtime settings of the wms binary.
type Config struct {
	Store       StoreConfig
	Behaviours  string
	Seed        string
	Logger      logging.Config
	// MetricsFile receives the operation metrics in text format on exit
	MetricsFile string
	// Trace logs operation spans at debug level
	Trace bool
}

type StoreConfig struct {
	Backend     string
	SQLitePath  string
	PostgresDSN string
	Timeout     time.Duration
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults suited to a local run.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Store: StoreConfig{
			Backend:     getString("WMS_STORE", StoreSQLite),
			SQLitePath:  getString("WMS_SQLITE_PATH", "./wms.db"),
			PostgresDSN: os.Getenv("WMS_POSTGRES_DSN"),
			Timeout:     getDuration("WMS_STORE_TIMEOUT", 10*time.Second),
		},
		Behaviours:  getString("WMS_BEHAVIOURS", "./behaviours.toml"),
		Seed:        os.Getenv("WMS_SEED"),
		Logger: logging.Config{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
		MetricsFile: os.Getenv("WMS_METRICS_FILE"),
		Trace:       getBool("WMS_TRACE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and backends missing their location
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("WMS_SQLITE_PATH is required for the %s store", StoreSQLite)
		}
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("WMS_POSTGRES_DSN is required for the %s store", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown store backend %q (want %s, %s or %s)",
			c.Store.Backend, StoreMemory, StoreSQLite, StorePostgres)
	}
	return nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
