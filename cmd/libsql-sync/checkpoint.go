package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"libsqlsync/pkg/checkpoint"
	errs "libsqlsync/pkg/errors"
)

var (
	frameNo          uint32
	rejectRegression bool
	showJSON         bool
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect and maintain the replica checkpoint",
	Long: `Inspect and maintain the <database>-info file holding the last frame number
durably applied to the replica.

Writes go through a temporary file that is synced and renamed over the
checkpoint, so a crash never leaves a partial record behind.`,
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the recorded frame number",
	Example: `  libsql-sync checkpoint show --db ./app.db
  libsql-sync checkpoint show --db ./app.db --json`,
	Args: cobra.NoArgs,
	RunE: runCheckpointShow,
}

var checkpointInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the checkpoint for a replica that has none",
	Long: `Create the checkpoint file for a replica. The command refuses to touch an
existing checkpoint; use 'checkpoint set' to move one.`,
	Example: `  libsql-sync checkpoint init --db ./app.db --url libsql://db.example.turso.io
  libsql-sync checkpoint init --db ./app.db --url http://127.0.0.1:8080 --frame 120`,
	Args: cobra.NoArgs,
	RunE: runCheckpointInit,
}

var checkpointSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Record a new frame number",
	Long: `Record a new frame number in an existing checkpoint.

Only do this when the database file is known to contain every frame up to
the given number. Recording a frame the database does not have makes the
replica skip frames on its next sync.`,
	Example: `  libsql-sync checkpoint set --db ./app.db --url libsql://db.example.turso.io --frame 4711
  libsql-sync checkpoint set --db ./app.db --url http://127.0.0.1:8080 --frame 10 --reject-regression`,
	Args: cobra.NoArgs,
	RunE: runCheckpointSet,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointInitCmd)
	checkpointCmd.AddCommand(checkpointSetCmd)

	checkpointShowCmd.Flags().BoolVar(&showJSON, "json", false, "print the record as JSON")

	checkpointInitCmd.Flags().Uint32Var(&frameNo, "frame", 0, "initial frame number")

	checkpointSetCmd.Flags().Uint32Var(&frameNo, "frame", 0, "frame number to record")
	checkpointSetCmd.Flags().BoolVar(&rejectRegression, "reject-regression", false, "refuse a frame number below the current one")
	_ = checkpointSetCmd.MarkFlagRequired("frame")
}

func requireDatabasePath() (string, error) {
	if cfg.Sync.DatabasePath == "" {
		return "", errors.New("database path is required (--db or LIBSQL_SYNC_DB)")
	}
	return cfg.Sync.DatabasePath, nil
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	db, err := requireDatabasePath()
	if err != nil {
		return err
	}
	path := checkpoint.MetadataPathFor(db)

	rec, err := checkpoint.ReadRecord(path)
	if err != nil {
		if errs.IsNotExist(err) {
			out.Warning("No checkpoint recorded", path)
			return nil
		}
		return err
	}

	if showJSON {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		out.Raw(string(data) + "\n")
		return nil
	}

	out.Info("Checkpoint", path)
	out.Info("Max frame", rec.MaxFrameNo)
	return nil
}

func runCheckpointInit(cmd *cobra.Command, args []string) error {
	db, err := requireDatabasePath()
	if err != nil {
		return err
	}
	path := checkpoint.MetadataPathFor(db)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("checkpoint already exists at %s; use 'checkpoint set' to change it", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	store, err := openStore(cfg, func(o *checkpoint.Options) {
		o.MissingFile = checkpoint.MissingFileZero
	})
	if err != nil {
		return err
	}
	if err := store.AdvanceMarker(frameNo); err != nil {
		return err
	}

	out.Success(fmt.Sprintf("Created checkpoint at frame %d", store.CurrentMarker()))
	out.Info("Path", store.MetadataPath())
	return nil
}

func runCheckpointSet(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg, func(o *checkpoint.Options) {
		if rejectRegression {
			o.Regression = checkpoint.RegressionReject
		}
	})
	if err != nil {
		if errs.IsCheckpointLoad(err) && errs.IsNotExist(err) {
			return fmt.Errorf("%w (run 'checkpoint init' first or pass --missing-checkpoint zero)", err)
		}
		return err
	}

	previous := store.CurrentMarker()
	if err := store.AdvanceMarker(frameNo); err != nil {
		return err
	}

	if frameNo < previous {
		out.Warning("Checkpoint moved backwards", fmt.Sprintf("%d -> %d", previous, frameNo))
	} else {
		out.Success(fmt.Sprintf("Checkpoint recorded: %d -> %d", previous, frameNo))
	}
	out.Info("Path", store.MetadataPath())
	return nil
}
