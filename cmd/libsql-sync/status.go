package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"libsqlsync/pkg/checkpoint"
	errs "libsqlsync/pkg/errors"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective sync settings and checkpoint",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Endpoint:      %s\n", orUnset(cfg.Sync.URL))
	fmt.Fprintf(&b, "Database:      %s\n", orUnset(cfg.Sync.DatabasePath))
	fmt.Fprintf(&b, "Retry budget:  %d\n", cfg.Sync.MaxRetries)
	fmt.Fprintf(&b, "Interval:      %s\n", cfg.Sync.Interval)
	fmt.Fprintf(&b, "Missing file:  %s\n", cfg.Checkpoint.MissingFile)
	fmt.Fprintf(&b, "Regression:    %s", cfg.Checkpoint.Regression)
	out.Highlight("Sync status")
	out.Panel(b.String())

	if cfg.Sync.URL != "" {
		if resolveToken(cfg) != "" {
			out.Info("Credential", "configured")
		} else {
			out.Info("Credential", "none")
		}
	}

	if cfg.Sync.DatabasePath == "" {
		out.Dim("Set --db or LIBSQL_SYNC_DB to inspect a checkpoint")
		return nil
	}

	path := checkpoint.MetadataPathFor(cfg.Sync.DatabasePath)
	rec, err := checkpoint.ReadRecord(path)
	switch {
	case err == nil:
		out.Info("Checkpoint", fmt.Sprintf("frame %d (%s)", rec.MaxFrameNo, path))
	case errs.IsNotExist(err):
		if cfg.Checkpoint.MissingFile == checkpoint.MissingFileZero.String() {
			out.Info("Checkpoint", "none, sync starts at frame 0")
		} else {
			out.Warning("Checkpoint missing, the replica will refuse to open", path)
		}
	default:
		out.Error("Checkpoint unreadable", err)
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
