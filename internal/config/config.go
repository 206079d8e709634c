package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Graph     GraphConfig     `yaml:"graph"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Logging   LoggingConfig   `yaml:"logging"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port              int           `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout       time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MetricsEnabled    bool          `yaml:"metrics_enabled" env:"SERVER_METRICS_ENABLED" env-default:"false"`
	AllowedOriginsCSV string        `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
}

// StoreConfig selects the backing store for members and deals.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"neo4j"`
	// DatasetDir seeds the memory driver from members.json and deals.json.
	DatasetDir string `yaml:"dataset_dir" env:"STORE_DATASET_DIR"`
}

// GraphConfig describes connectivity to the graph database (Neo4j).
type GraphConfig struct {
	URI            string        `yaml:"uri" env:"GRAPH_URI"`
	Database       string        `yaml:"database" env:"GRAPH_DATABASE"`
	Username       string        `yaml:"username" env:"GRAPH_USERNAME"`
	Password       string        `yaml:"password" env:"GRAPH_PASSWORD"`
	MaxConnections int           `yaml:"max_connections" env:"GRAPH_MAX_CONNECTIONS" env-default:"10"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env:"GRAPH_ACQUIRE_TIMEOUT" env-default:"30s"`
	MaxRetryTime   time.Duration `yaml:"max_retry_time" env:"GRAPH_MAX_RETRY_TIME" env-default:"15s"`
	// EnsureSchema creates constraints and indexes at startup.
	EnsureSchema bool `yaml:"ensure_schema" env:"GRAPH_ENSURE_SCHEMA" env-default:"true"`
}

// PostgresConfig describes the relational store.
type PostgresConfig struct {
	DSN            string `yaml:"dsn" env:"POSTGRES_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"POSTGRES_MIGRATIONS_PATH"`
	MaxOpenConns   int    `yaml:"max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS" env-default:"10"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format        string `yaml:"format" env:"LOG_FORMAT" env-default:"text"` // text|json
	IncludeCaller bool   `yaml:"include_caller" env:"LOG_INCLUDE_CALLER" env-default:"false"`
}

// ReportingConfig tunes the analytics engine.
type ReportingConfig struct {
	ScopeLimit    int    `yaml:"scope_limit" env:"REPORT_SCOPE_LIMIT" env-default:"2500"`
	TrendCap      int    `yaml:"trend_cap" env:"REPORT_TREND_CAP" env-default:"62"`
	Timezone      string `yaml:"timezone" env:"REPORT_TIMEZONE" env-default:"UTC"`
	DefaultPreset string `yaml:"default_preset" env:"REPORT_DEFAULT_PRESET" env-default:"this_month"`
}

const (
	DriverNeo4j    = "neo4j"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var (
	// ErrInvalidTimezone is returned when REPORT_TIMEZONE cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid report timezone")
	// ErrUnknownDriver is returned for an unsupported STORE_DRIVER.
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Load reads configuration from a .env file (if present), an optional YAML
// file named by CONFIG_PATH and environment variables, in that order of
// increasing precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverNeo4j, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Store.Driver)
	}

	if _, err := c.Reporting.Location(); err != nil {
		return err
	}
	if c.Reporting.ScopeLimit <= 0 {
		return fmt.Errorf("scope limit must be positive, got %d", c.Reporting.ScopeLimit)
	}
	return nil
}

// Location loads the configured reporting timezone.
func (r ReportingConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(r.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}
