package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Missing-checkpoint policies
const (
	MissingFileFail = "fail"
	MissingFileZero = "zero"
)

// Marker regression policies
const (
	RegressionAllow  = "allow"
	RegressionReject = "reject"
)

// DefaultMaxRetries is the retry budget used when none is configured
const DefaultMaxRetries = 5

// Config holds all configuration options for the sync tooling
type Config struct {
	Sync       SyncConfig       `yaml:"sync" json:"sync"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// SyncConfig describes the remote primary and the local replica
type SyncConfig struct {
	URL          string        `yaml:"url" json:"url"`
	AuthToken    string        `yaml:"auth_token" json:"auth_token"`
	DatabasePath string        `yaml:"database_path" json:"database_path"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	Interval     time.Duration `yaml:"interval" json:"interval"`
	// PullsPerMinute caps requests to the primary (0 means unlimited)
	PullsPerMinute int `yaml:"pulls_per_minute" json:"pulls_per_minute"`
	PullBurst      int `yaml:"pull_burst" json:"pull_burst"`
}

// CheckpointConfig holds the sidecar policies
type CheckpointConfig struct {
	// MissingFile is "fail" (refuse to open) or "zero" (treat as first sync)
	MissingFile string `yaml:"missing_file" json:"missing_file"`
	// Regression is "allow" or "reject" for advances below the current marker
	Regression string `yaml:"regression" json:"regression"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			MaxRetries: DefaultMaxRetries,
			Interval:   time.Minute,
			PullBurst:  1,
		},
		Checkpoint: CheckpointConfig{
			MissingFile: MissingFileFail,
			Regression:  RegressionAllow,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("LIBSQL_SYNC_URL"); v != "" {
		c.Sync.URL = v
	}
	if v := os.Getenv("LIBSQL_AUTH_TOKEN"); v != "" {
		c.Sync.AuthToken = v
	}
	if v := os.Getenv("LIBSQL_SYNC_DB"); v != "" {
		c.Sync.DatabasePath = v
	}
	if v := os.Getenv("LIBSQL_SYNC_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LIBSQL_SYNC_MAX_RETRIES %q: %w", v, err)
		}
		c.Sync.MaxRetries = n
	}
	if v := os.Getenv("LIBSQL_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LIBSQL_SYNC_INTERVAL %q: %w", v, err)
		}
		c.Sync.Interval = d
	}
	if v := os.Getenv("LIBSQL_SYNC_PULLS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LIBSQL_SYNC_PULLS_PER_MINUTE %q: %w", v, err)
		}
		c.Sync.PullsPerMinute = n
	}
	if v := os.Getenv("LIBSQL_SYNC_MISSING_CHECKPOINT"); v != "" {
		c.Checkpoint.MissingFile = strings.ToLower(v)
	}
	if v := os.Getenv("LIBSQL_SYNC_REGRESSION"); v != "" {
		c.Checkpoint.Regression = strings.ToLower(v)
	}
	if v := os.Getenv("LIBSQL_SYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LIBSQL_SYNC_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".libsql-sync.yaml",
		".libsql-sync.yml",
		filepath.Join(home, ".config", "libsql-sync", "config.yaml"),
		filepath.Join(home, ".config", "libsql-sync", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Sync.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Sync.Interval < 0 {
		errs = append(errs, errors.New("sync interval cannot be negative"))
	}
	if c.Sync.PullsPerMinute < 0 {
		errs = append(errs, errors.New("pulls per minute cannot be negative"))
	}
	if c.Sync.PullBurst < 0 {
		errs = append(errs, errors.New("pull burst cannot be negative"))
	}

	switch c.Checkpoint.MissingFile {
	case MissingFileFail, MissingFileZero:
	default:
		errs = append(errs, fmt.Errorf("invalid missing_file policy %q", c.Checkpoint.MissingFile))
	}
	switch c.Checkpoint.Regression {
	case RegressionAllow, RegressionReject:
	default:
		errs = append(errs, fmt.Errorf("invalid regression policy %q", c.Checkpoint.Regression))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RequireReplica checks the settings needed to open a replica for sync
func (c *Config) RequireReplica() error {
	var errs []error
	if c.Sync.URL == "" {
		errs = append(errs, errors.New("sync url is required"))
	}
	if c.Sync.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may carry an auth token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["url"].(string); ok && v != "" {
		c.Sync.URL = v
	}
	if v, ok := flags["auth-token"].(string); ok && v != "" {
		c.Sync.AuthToken = v
	}
	if v, ok := flags["db"].(string); ok && v != "" {
		c.Sync.DatabasePath = v
	}
	if v, ok := flags["max-retries"].(int); ok && v >= 0 {
		c.Sync.MaxRetries = v
	}
	if v, ok := flags["missing-checkpoint"].(string); ok && v != "" {
		c.Checkpoint.MissingFile = strings.ToLower(v)
	}
	if v, ok := flags["regression"].(string); ok && v != "" {
		c.Checkpoint.Regression = strings.ToLower(v)
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".libsql-sync.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
