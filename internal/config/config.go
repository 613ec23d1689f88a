// Package config provides unified configuration for the hostwatch daemon
// and its companion tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the unified configuration for hostwatch.
type Config struct {
	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Database configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Extension API configuration
	Extension ExtensionConfig `json:"extension" yaml:"extension"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// DecorationsTopLevel flattens decoration fields into the top level of
	// serialized query results instead of nesting them
	DecorationsTopLevel bool `json:"decorations_top_level" yaml:"decorations_top_level"`
}

// DatabaseConfig holds storage backend configuration.
type DatabaseConfig struct {
	// Disabled forces the ephemeral in-memory backend
	Disabled bool `json:"disabled" yaml:"disabled"`

	// Backend is the persistent backend to use: bolt, sqlite
	Backend string `json:"backend" yaml:"backend"`

	// Path is the database file path
	Path string `json:"path" yaml:"path"`

	// RequireWrite makes the startup self-test fail on read-only storage
	RequireWrite bool `json:"require_write" yaml:"require_write"`

	// CompressValues enables transparent compression of large values
	CompressValues bool `json:"compress_values" yaml:"compress_values"`
}

// ExtensionConfig holds the extension API server configuration.
type ExtensionConfig struct {
	// Enabled controls whether the extension API is served
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Addr is the listen address for the extension API
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format is the log output format: text, json
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/hostwatch",
		Database: DatabaseConfig{
			Disabled:       false,
			Backend:        "bolt",
			Path:           "",
			RequireWrite:   true,
			CompressValues: true,
		},
		Extension: ExtensionConfig{
			Enabled:      true,
			Addr:         "127.0.0.1:9037",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/hostwatch"
	}

	if c.Database.Path == "" {
		switch c.Database.Backend {
		case "sqlite":
			c.Database.Path = filepath.Join(c.DataDir, "hostwatch.sqlite")
		default:
			c.Database.Path = filepath.Join(c.DataDir, "hostwatch.db")
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if !c.Database.Disabled {
		switch c.Database.Backend {
		case "bolt", "sqlite":
			// Valid backends
		default:
			return fmt.Errorf("invalid database backend: %s (must be bolt or sqlite)", c.Database.Backend)
		}
	}

	if c.Extension.Enabled && c.Extension.Addr == "" {
		return fmt.Errorf("extension.addr is required when the extension API is enabled")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the HOSTWATCH_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("HOSTWATCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Database configuration
	if v := os.Getenv("HOSTWATCH_DATABASE_DISABLED"); v != "" {
		cfg.Database.Disabled = v == "true" || v == "1"
	}
	if v := os.Getenv("HOSTWATCH_DATABASE_BACKEND"); v != "" {
		cfg.Database.Backend = v
	}
	if v := os.Getenv("HOSTWATCH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("HOSTWATCH_DATABASE_REQUIRE_WRITE"); v != "" {
		cfg.Database.RequireWrite = v == "true" || v == "1"
	}
	if v := os.Getenv("HOSTWATCH_DATABASE_COMPRESS_VALUES"); v != "" {
		cfg.Database.CompressValues = v == "true" || v == "1"
	}

	// Extension configuration
	if v := os.Getenv("HOSTWATCH_EXTENSION_ENABLED"); v != "" {
		cfg.Extension.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("HOSTWATCH_EXTENSION_ADDR"); v != "" {
		cfg.Extension.Addr = v
	}
	if v := os.Getenv("HOSTWATCH_EXTENSION_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Extension.ReadTimeout = d
		}
	}
	if v := os.Getenv("HOSTWATCH_EXTENSION_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Extension.WriteTimeout = d
		}
	}

	// Logging configuration
	if v := os.Getenv("HOSTWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("HOSTWATCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("HOSTWATCH_DECORATIONS_TOP_LEVEL"); v != "" {
		cfg.DecorationsTopLevel = v == "true" || v == "1"
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
	}
	if !c.Database.Disabled && c.Database.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
