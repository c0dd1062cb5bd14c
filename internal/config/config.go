// Package config holds the settings shared by all commands.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Default per-statement bind ceilings of the backends.
const (
	SQLiteMaxParams   = 999
	PostgresMaxParams = 65535

	// DefaultMaxRows caps the rows of one INSERT regardless of the ceiling.
	DefaultMaxRows = 4000
)

// Config holds the global configuration of a run
type Config struct {
	// Store selection
	Backend string `yaml:"backend"`
	DBPath  string `yaml:"db_path"` // SQLite file or DSN

	// PostgreSQL settings
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBSchema   string `yaml:"db_schema"`

	// Loader settings. Zero MaxParams means the backend default.
	MaxParams int `yaml:"max_params"`
	MaxRows   int `yaml:"max_rows"`

	// Input settings
	DataDir string `yaml:"data_dir"` // directory scanned by the files command
	Workers int    `yaml:"workers"`  // PBF decoder goroutines

	// Export settings
	StyleFile string `yaml:"style_file"`

	// Logging and metrics
	Verbose         bool          `yaml:"verbose"`
	LogFile         string        `yaml:"log_file"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend:         BackendSQLite,
		DBPath:          "osm.db",
		DBHost:          "localhost",
		DBPort:          5432,
		DBName:          "osm",
		DBUser:          "postgres",
		DBSchema:        "public",
		MaxRows:         DefaultMaxRows,
		DataDir:         "mapdata",
		Workers:         4,
		MetricsInterval: 30 * time.Second,
	}
}

// LoadFile reads a YAML config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// EffectiveMaxParams returns MaxParams, or the backend ceiling when unset.
func (c *Config) EffectiveMaxParams() int {
	if c.MaxParams > 0 {
		return c.MaxParams
	}
	if c.Backend == BackendPostgres {
		return PostgresMaxParams
	}
	return SQLiteMaxParams
}

// ConnectionString returns a PostgreSQL connection URL
func (c *Config) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	if c.DBPassword != "" {
		u.User = url.UserPassword(c.DBUser, c.DBPassword)
	} else {
		u.User = url.User(c.DBUser)
	}
	return u.String()
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("db path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.DBName == "" {
			return fmt.Errorf("database name is required for the postgres backend")
		}
		if c.DBPort < 1 || c.DBPort > 65535 {
			return fmt.Errorf("invalid database port %d", c.DBPort)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendPostgres)
	}

	limit := SQLiteMaxParams
	if c.Backend == BackendPostgres {
		limit = PostgresMaxParams
	}
	if c.MaxParams < 0 || c.MaxParams > limit {
		return fmt.Errorf("max params must be between 1 and %d for %s", limit, c.Backend)
	}
	if c.MaxRows < 1 {
		return fmt.Errorf("max rows must be at least 1")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	return nil
}
