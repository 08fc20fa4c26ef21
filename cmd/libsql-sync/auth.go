package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"libsqlsync/pkg/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage sync endpoint credentials",
	Long: `Manage the auth tokens used to pull frames from a primary.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - LIBSQL_AUTH_TOKEN (read only)

A token set in the configuration or LIBSQL_AUTH_TOKEN takes precedence over
stored ones.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [endpoint]",
	Short: "Store the auth token for an endpoint",
	Long: `Store the auth token for a sync endpoint. The token is read from the
terminal without echo. The endpoint defaults to the configured sync url.`,
	Example: `  libsql-sync auth login libsql://db-example.turso.io
  libsql-sync auth login --url http://127.0.0.1:8080`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [endpoint]",
	Short: "Remove the stored token for an endpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials with masked tokens",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func endpointArg(args []string) (string, error) {
	endpoint := cfg.Sync.URL
	if len(args) > 0 {
		endpoint = args[0]
	}
	endpoint = auth.NormalizeEndpoint(endpoint)
	if endpoint == "" {
		return "", errors.New("endpoint is required (argument, --url or LIBSQL_SYNC_URL)")
	}
	return endpoint, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	endpoint, err := endpointArg(args)
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if existing, _ := manager.Retrieve(endpoint); existing != nil {
		out.Warning("A token is already stored for this endpoint and will be replaced", endpoint)
	}

	fmt.Printf("Auth token for %s: ", endpoint)
	token, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return errors.New("token is empty")
	}

	if err := manager.Store(&auth.Credential{Endpoint: endpoint, AuthToken: token}); err != nil {
		return err
	}

	out.Success("Token stored")
	out.Info("Endpoint", endpoint)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	endpoint, err := endpointArg(args)
	if err != nil {
		return err
	}

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.Delete(endpoint); err != nil {
		return err
	}

	out.Success("Token removed")
	out.Info("Endpoint", endpoint)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		out.Dim("No stored credentials")
		return nil
	}

	out.Highlight("Stored credentials")
	for _, cred := range creds {
		safe := auth.SanitizeCredential(cred)
		out.Info(safe.Endpoint, safe.AuthToken)
		if !safe.LastModified.IsZero() {
			out.Dim("  updated " + safe.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
