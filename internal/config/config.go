// Package config provides application configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"cardpricer/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Server contains HTTP server settings
	Server ServerConfig `yaml:"server"`

	// Database contains storage settings
	Database DatabaseConfig `yaml:"database"`

	// Repricing contains bulk repricing settings
	Repricing RepricingConfig `yaml:"repricing"`

	// Logging contains logging configuration
	Logging logging.Config `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `yaml:"addr"`
}

// DatabaseConfig contains storage settings
type DatabaseConfig struct {
	// SQLitePath is the path to the pricing database
	SQLitePath string `yaml:"sqlite_path"`
}

// RepricingConfig contains bulk repricing settings
type RepricingConfig struct {
	// Cron is the repricing schedule (cron expression with seconds)
	Cron string `yaml:"cron"`

	// ChunkSize bounds how many cards one transaction touches
	ChunkSize int `yaml:"chunk_size"`

	// RunOnStart triggers a repricing pass at startup
	RunOnStart bool `yaml:"run_on_start"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".cardpricer", "pricing.db")

	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			SQLitePath: dbPath,
		},
		Repricing: RepricingConfig{
			// Daily at 06:30, after the overnight catalog ingestion
			Cron:       "0 30 6 * * *",
			ChunkSize:  500,
			RunOnStart: false,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads configuration from a YAML file, then applies environment
// variable overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("CARDPRICER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CARDPRICER_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CARDPRICER_REPRICE_CRON"); v != "" {
		cfg.Repricing.Cron = v
	}
	if v := os.Getenv("CARDPRICER_REPRICE_CHUNK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Repricing.ChunkSize = n
		}
	}
	if v := os.Getenv("CARDPRICER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
