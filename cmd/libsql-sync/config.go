package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"libsqlsync/pkg/auth"
	"libsqlsync/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	// Subcommands load the configuration themselves so that a broken file
	// can still be inspected
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to .libsql-sync.yaml unless --config names another path.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# libsql-sync configuration
#
# Environment variables override this file:
#   LIBSQL_SYNC_URL, LIBSQL_AUTH_TOKEN, LIBSQL_SYNC_DB, LIBSQL_SYNC_MAX_RETRIES,
#   LIBSQL_SYNC_INTERVAL, LIBSQL_SYNC_MISSING_CHECKPOINT, LIBSQL_SYNC_REGRESSION,
#   LIBSQL_SYNC_LOG_LEVEL, LIBSQL_SYNC_LOG_FILE

sync:
  # Sync endpoint of the primary
  url: "libsql://your-database.turso.io"

  # Prefer 'libsql-sync auth login' over putting the token here
  auth_token: ""

  # Local replica; the checkpoint is stored at <database_path>-info
  database_path: "./replica.db"

  # Retries of one sync round after the first attempt
  max_retries: 5

  # Time between periodic syncs
  interval: 1m

checkpoint:
  # fail: refuse to open without a checkpoint file
  # zero: start at frame 0 and create the file on the first advance
  missing_file: fail

  # allow: record whatever frame is reported
  # reject: refuse a frame below the recorded one
  regression: allow

logging:
  level: info
  # JSON log file, rotated by size
  file: ""
  max_size: 100
  max_backups: 3
  max_age: 7
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".libsql-sync.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	out.Success("Configuration file created")
	out.Info("Path", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return err
	}

	display := *c
	if display.Sync.AuthToken != "" {
		display.Sync.AuthToken = auth.SanitizeCredential(&auth.Credential{AuthToken: display.Sync.AuthToken}).AuthToken
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out.Highlight("Current configuration")
	out.Raw(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return err
	}

	var problems []error
	if err := c.RequireReplica(); err != nil {
		problems = append(problems, err)
	}
	if c.Sync.Interval == 0 {
		problems = append(problems, errors.New("sync interval must be positive for periodic sync"))
	}

	if len(problems) > 0 {
		out.Warning("Configuration is valid but incomplete for syncing")
		for _, p := range problems {
			out.Dim("  - " + p.Error())
		}
		return nil
	}

	out.Success("Configuration is valid")
	return nil
}
