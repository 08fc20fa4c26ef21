package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5, cfg.Sync.MaxRetries)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Empty(t, cfg.Sync.URL)
	assert.Equal(t, MissingFileFail, cfg.Checkpoint.MissingFile)
	assert.Equal(t, RegressionAllow, cfg.Checkpoint.Regression)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Logging.MaxSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LIBSQL_SYNC_URL", "libsql://primary.example.com")
	t.Setenv("LIBSQL_AUTH_TOKEN", "env-token")
	t.Setenv("LIBSQL_SYNC_DB", "/data/replica.db")
	t.Setenv("LIBSQL_SYNC_MAX_RETRIES", "9")
	t.Setenv("LIBSQL_SYNC_INTERVAL", "30s")
	t.Setenv("LIBSQL_SYNC_MISSING_CHECKPOINT", "ZERO")
	t.Setenv("LIBSQL_SYNC_REGRESSION", "reject")
	t.Setenv("LIBSQL_SYNC_LOG_LEVEL", "debug")
	t.Setenv("LIBSQL_SYNC_PULLS_PER_MINUTE", "60")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "libsql://primary.example.com", cfg.Sync.URL)
	assert.Equal(t, "env-token", cfg.Sync.AuthToken)
	assert.Equal(t, "/data/replica.db", cfg.Sync.DatabasePath)
	assert.Equal(t, 9, cfg.Sync.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, MissingFileZero, cfg.Checkpoint.MissingFile)
	assert.Equal(t, RegressionReject, cfg.Checkpoint.Regression)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 60, cfg.Sync.PullsPerMinute)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("LIBSQL_SYNC_MAX_RETRIES", "lots")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIBSQL_SYNC_MAX_RETRIES")
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		content := `
sync:
  url: libsql://file.example.com
  database_path: /var/lib/app/replica.db
  max_retries: 0
  interval: 2m
  pulls_per_minute: 120

checkpoint:
  missing_file: zero
  regression: reject

logging:
  level: warn
  file: /var/log/libsql-sync.log
  max_backups: 5
  compress: true
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "libsql://file.example.com", cfg.Sync.URL)
		assert.Equal(t, "/var/lib/app/replica.db", cfg.Sync.DatabasePath)
		assert.Equal(t, 0, cfg.Sync.MaxRetries)
		assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
		assert.Equal(t, 120, cfg.Sync.PullsPerMinute)
		assert.Equal(t, 1, cfg.Sync.PullBurst)
		assert.Equal(t, MissingFileZero, cfg.Checkpoint.MissingFile)
		assert.Equal(t, RegressionReject, cfg.Checkpoint.Regression)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, 5, cfg.Logging.MaxBackups)
		assert.Equal(t, 100, cfg.Logging.MaxSize, "unset keys keep their defaults")
		assert.True(t, cfg.Logging.Compress)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("sync:\n  url: [broken\n"), 0644))

		err := DefaultConfig().LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("non-existent file", func(t *testing.T) {
		err := DefaultConfig().LoadFromFile("/non/existent/config.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}

func TestFindConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	oldDir, _ := os.Getwd()
	defer os.Chdir(oldDir)
	require.NoError(t, os.Chdir(tempDir))

	cfg := DefaultConfig()
	assert.Empty(t, cfg.findConfigFile())

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".libsql-sync.yaml"), []byte("sync: {}\n"), 0644))
	assert.Equal(t, ".libsql-sync.yaml", cfg.findConfigFile())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"negative retries", func(c *Config) { c.Sync.MaxRetries = -1 }, "max retries cannot be negative"},
		{"negative pull rate", func(c *Config) { c.Sync.PullsPerMinute = -5 }, "pulls per minute cannot be negative"},
		{"negative pull burst", func(c *Config) { c.Sync.PullBurst = -1 }, "pull burst cannot be negative"},
		{"unknown missing policy", func(c *Config) { c.Checkpoint.MissingFile = "guess" }, "invalid missing_file policy"},
		{"unknown regression policy", func(c *Config) { c.Checkpoint.Regression = "clamp" }, "invalid regression policy"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireReplica(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.RequireReplica()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync url is required")
	assert.Contains(t, err.Error(), "database path is required")

	cfg.Sync.URL = "libsql://x"
	cfg.Sync.DatabasePath = "/tmp/x.db"
	assert.NoError(t, cfg.RequireReplica())
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"url":         "libsql://flag",
		"db":          "/flag.db",
		"max-retries": 2,
		"regression":  "REJECT",
		"log-level":   "",
	})

	assert.Equal(t, "libsql://flag", cfg.Sync.URL)
	assert.Equal(t, "/flag.db", cfg.Sync.DatabasePath)
	assert.Equal(t, 2, cfg.Sync.MaxRetries)
	assert.Equal(t, RegressionReject, cfg.Checkpoint.Regression)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveAndLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	path := filepath.Join(tempDir, "nested", "config.yaml")

	saved := DefaultConfig()
	saved.Sync.URL = "libsql://saved"
	saved.Sync.MaxRetries = 7
	require.NoError(t, saved.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	t.Setenv("LIBSQL_SYNC_MAX_RETRIES", "3")
	cfg, err := Load(path, map[string]interface{}{"db": "/flag.db"})
	require.NoError(t, err)

	assert.Equal(t, "libsql://saved", cfg.Sync.URL)
	assert.Equal(t, 3, cfg.Sync.MaxRetries, "env overrides file")
	assert.Equal(t, "/flag.db", cfg.Sync.DatabasePath)
}
