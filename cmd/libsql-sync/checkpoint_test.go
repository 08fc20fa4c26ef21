package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libsqlsync/pkg/checkpoint"
	"libsqlsync/pkg/config"
	errs "libsqlsync/pkg/errors"
	"libsqlsync/pkg/logger"
	"libsqlsync/pkg/ui"
)

// setup points the command globals at a temp replica and captures output
func setup(t *testing.T) (string, *bytes.Buffer) {
	t.Helper()

	db := filepath.Join(t.TempDir(), "replica.db")
	c := config.DefaultConfig()
	c.Sync.URL = "http://127.0.0.1:8080"
	c.Sync.AuthToken = "test-token"
	c.Sync.DatabasePath = db

	var buf bytes.Buffer
	prevCfg, prevOut := cfg, out
	cfg, out = c, ui.NewPrinter(&buf).Plain()
	logger.SetLogger(logger.NewNopLogger())

	frameNo, rejectRegression, showJSON = 0, false, false
	t.Cleanup(func() {
		cfg, out = prevCfg, prevOut
		frameNo, rejectRegression, showJSON = 0, false, false
	})
	return db, &buf
}

func TestCheckpointInitCreatesSidecar(t *testing.T) {
	db, buf := setup(t)
	frameNo = 120

	require.NoError(t, runCheckpointInit(nil, nil))

	data, err := os.ReadFile(checkpoint.MetadataPathFor(db))
	require.NoError(t, err)
	assert.Equal(t, `{"max_frame_no":120}`, string(data))
	assert.Contains(t, buf.String(), "Created checkpoint at frame 120")
}

func TestCheckpointInitRefusesOverwrite(t *testing.T) {
	db, _ := setup(t)
	path := checkpoint.MetadataPathFor(db)
	require.NoError(t, os.WriteFile(path, []byte(`{"max_frame_no":9}`), 0644))

	frameNo = 1
	err := runCheckpointInit(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"max_frame_no":9}`, string(data))
}

func TestCheckpointInitRequiresURL(t *testing.T) {
	setup(t)
	cfg.Sync.URL = ""

	assert.Error(t, runCheckpointInit(nil, nil))
}

func TestCheckpointSet(t *testing.T) {
	db, buf := setup(t)
	require.NoError(t, os.WriteFile(checkpoint.MetadataPathFor(db), []byte(`{"max_frame_no":100}`), 0644))

	frameNo = 250
	require.NoError(t, runCheckpointSet(nil, nil))
	assert.Contains(t, buf.String(), "Checkpoint recorded: 100 -> 250")

	rec, err := checkpoint.ReadRecord(checkpoint.MetadataPathFor(db))
	require.NoError(t, err)
	assert.Equal(t, uint32(250), rec.MaxFrameNo)
}

func TestCheckpointSetRegression(t *testing.T) {
	db, buf := setup(t)
	path := checkpoint.MetadataPathFor(db)
	require.NoError(t, os.WriteFile(path, []byte(`{"max_frame_no":100}`), 0644))

	frameNo = 50
	rejectRegression = true
	err := runCheckpointSet(nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsMarkerRegression(err))

	rejectRegression = false
	require.NoError(t, runCheckpointSet(nil, nil))
	assert.Contains(t, buf.String(), "Checkpoint moved backwards")

	rec, err := checkpoint.ReadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), rec.MaxFrameNo)
}

func TestCheckpointSetWithoutSidecar(t *testing.T) {
	setup(t)
	frameNo = 5

	err := runCheckpointSet(nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsCheckpointLoad(err))
	assert.Contains(t, err.Error(), "checkpoint init")
}

func TestCheckpointShow(t *testing.T) {
	db, buf := setup(t)

	require.NoError(t, runCheckpointShow(nil, nil))
	assert.Contains(t, buf.String(), "No checkpoint recorded")

	require.NoError(t, os.WriteFile(checkpoint.MetadataPathFor(db), []byte(`{"max_frame_no":4711,"extra":true}`), 0644))
	buf.Reset()
	require.NoError(t, runCheckpointShow(nil, nil))
	assert.Contains(t, buf.String(), "Max frame: 4711")

	buf.Reset()
	showJSON = true
	require.NoError(t, runCheckpointShow(nil, nil))
	assert.Equal(t, "{\"max_frame_no\":4711}\n", buf.String())
}

func TestCheckpointShowMalformed(t *testing.T) {
	db, _ := setup(t)
	require.NoError(t, os.WriteFile(checkpoint.MetadataPathFor(db), []byte(`{"max_frame_no":-1}`), 0644))

	err := runCheckpointShow(nil, nil)
	require.Error(t, err)
	assert.True(t, errs.IsCheckpointLoad(err))
}

func TestStatus(t *testing.T) {
	db, buf := setup(t)

	require.NoError(t, runStatus(nil, nil))
	assert.Contains(t, buf.String(), "Checkpoint missing")
	assert.Contains(t, buf.String(), "Credential: configured")

	require.NoError(t, os.WriteFile(checkpoint.MetadataPathFor(db), []byte(`{"max_frame_no":7}`), 0644))
	buf.Reset()
	require.NoError(t, runStatus(nil, nil))
	assert.Contains(t, buf.String(), "frame 7")
	assert.Contains(t, buf.String(), "Retry budget:  5")
}
