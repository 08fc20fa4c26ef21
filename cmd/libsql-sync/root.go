package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"libsqlsync/pkg/auth"
	"libsqlsync/pkg/checkpoint"
	"libsqlsync/pkg/config"
	"libsqlsync/pkg/logger"
	"libsqlsync/pkg/ui"
)

var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile        string
	logLevel          string
	dbPath            string
	syncURL           string
	maxRetries        int
	missingCheckpoint string
	regression        string

	// cfg is loaded before any subcommand runs
	cfg *config.Config
	out = ui.Stdout()
)

var rootCmd = &cobra.Command{
	Use:   "libsql-sync",
	Short: "Inspect and maintain the sync checkpoint of a libsql replica",
	Long: `libsql-sync manages the checkpoint a libsql embedded replica keeps next to
its database file. The checkpoint lives in <database>-info and records the last
frame number durably applied from the primary, so a restarted replica resumes
from the right place.

Configuration is read from (highest priority first):
  - Command line flags
  - Environment variables (LIBSQL_SYNC_*, LIBSQL_AUTH_TOKEN)
  - .env files
  - .libsql-sync.yaml or ~/.config/libsql-sync/config.yaml
  - Default values`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile, flagOverrides(cmd))
		if err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.NewPrinter(os.Stderr).Error("Error", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default is .libsql-sync.yaml or ~/.config/libsql-sync/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&dbPath, "db", "", "path of the local replica database")
	flags.StringVar(&syncURL, "url", "", "sync endpoint of the primary")
	flags.IntVar(&maxRetries, "max-retries", config.DefaultMaxRetries, "retry budget of one sync round")
	flags.StringVar(&missingCheckpoint, "missing-checkpoint", "", "what a missing checkpoint means: fail or zero")
	flags.StringVar(&regression, "regression", "", "how to treat a lower frame number: allow or reject")

	rootCmd.SetVersionTemplate(`libsql-sync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// flagOverrides collects the flags the user actually set
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := cmd.Flags()

	if set.Changed("url") {
		flags["url"] = syncURL
	}
	if set.Changed("db") {
		flags["db"] = dbPath
	}
	if set.Changed("max-retries") {
		flags["max-retries"] = maxRetries
	}
	if set.Changed("missing-checkpoint") {
		flags["missing-checkpoint"] = missingCheckpoint
	}
	if set.Changed("regression") {
		flags["regression"] = regression
	}
	if set.Changed("log-level") {
		flags["log-level"] = logLevel
	}
	return flags
}

// resolveToken returns the configured token, falling back to stored credentials
func resolveToken(c *config.Config) string {
	if c.Sync.AuthToken != "" {
		return c.Sync.AuthToken
	}

	manager, err := auth.NewManager()
	if err != nil {
		logger.WithError(err).Warn("Credential stores unavailable, continuing without a token")
		return ""
	}
	token, err := manager.Token(c.Sync.URL)
	if err != nil {
		logger.WithError(err).Warn("Credential lookup failed, continuing without a token")
		return ""
	}
	return token
}

// openStore opens the checkpoint store described by c, with optional overrides
func openStore(c *config.Config, adjust func(*checkpoint.Options)) (*checkpoint.Store, error) {
	if err := c.RequireReplica(); err != nil {
		return nil, err
	}

	opts, err := checkpoint.OptionsFromConfig(c)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(opts)
	}

	return checkpoint.New(c.Sync.URL, resolveToken(c), c.Sync.DatabasePath, opts)
}
