package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Data     DataConfig     `yaml:"data" envconfig:"DATA"`
	Database DatabaseConfig `yaml:"database" envconfig:"DATABASE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DataConfig contains dataset configuration
type DataConfig struct {
	CSVPath string `yaml:"csv_path" envconfig:"CSV_PATH" default:"data/waste_statistics.csv"`
	TopN    int    `yaml:"top_n" envconfig:"TOP_N" default:"15"`
}

// DatabaseConfig contains archive database configuration.
// An empty host disables the archive entirely.
type DatabaseConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" default:"5432"`
	User            string        `yaml:"user" envconfig:"USER" default:"waste"`
	Password        string        `yaml:"password" envconfig:"PASSWORD"`
	Database        string        `yaml:"database" envconfig:"NAME" default:"waste_platform"`
	SSLMode         string        `yaml:"ssl_mode" envconfig:"SSL_MODE" default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"5m"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" envconfig:"CONN_MAX_IDLE_TIME" default:"5m"`
}

// Enabled reports whether an archive database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables with the WASTE
// prefix. When WASTE_CONFIG points at a YAML file, the file's values win
// over the environment.
func LoadConfig() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("WASTE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path := os.Getenv("WASTE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	return &cfg, nil
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Data.CSVPath == "" {
		return fmt.Errorf("data csv_path must not be empty")
	}
	if c.Data.TopN <= 0 {
		return fmt.Errorf("data top_n must be positive, got %d", c.Data.TopN)
	}
	if c.Database.Enabled() {
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port %d", c.Database.Port)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name must not be empty when archive is enabled")
		}
	}
	return nil
}
