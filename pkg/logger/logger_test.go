package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libsqlsync/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "sync.log"), MaxSize: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestFileOutputIsWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	l, err := New(&config.LoggingConfig{Level: "debug", File: path, MaxSize: 1})
	require.NoError(t, err)

	l.InfoWithFields("Checkpoint loaded", map[string]interface{}{"max_frame_no": uint32(7)})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"max_frame_no":7`)
	assert.Contains(t, string(data), `"app":"libsql-sync"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"invalid", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := ParseLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug")
	require.NoError(t, err)

	l.WithField("component", "checkpoint").
		WithError(errors.New("disk full")).
		WarnWithFields("Persist failed", map[string]interface{}{
			"path": "/data/app.db-info",
			"to":   uint32(250),
		})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Persist failed", entry["message"])
	assert.Equal(t, "checkpoint", entry["component"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, float64(250), entry["to"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn")
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("hidden too")
	l.Error("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent, err := NewWithWriter(&buf, "info")
	require.NoError(t, err)

	_ = parent.WithField("round_id", "abc")
	parent.Info("plain")

	assert.NotContains(t, buf.String(), "round_id")
}

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	derived := tl.WithField("component", "syncer").WithError(errors.New("boom"))
	derived.ErrorWithFields("Sync round failed", map[string]interface{}{"frames": 3})
	tl.Info("plain")

	msg, ok := tl.Find("Sync round failed")
	require.True(t, ok)
	assert.Equal(t, "ERROR", msg.Level)
	assert.Equal(t, "syncer", msg.Fields["component"])
	assert.Equal(t, 3, msg.Fields["frames"])
	assert.EqualError(t, msg.Error, "boom")
	assert.True(t, tl.HasError())
	assert.Len(t, tl.GetMessages(), 2)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestLogCheckpointAdvance(t *testing.T) {
	tl := NewTestLogger()

	LogCheckpointAdvance(tl, "/db-info", 100, 250)
	LogCheckpointAdvance(tl, "/db-info", 250, 10)

	assert.True(t, tl.HasMessage("Checkpoint advanced"))
	warn := tl.GetMessagesByLevel("WARN")
	require.Len(t, warn, 1)
	assert.Equal(t, uint32(10), warn[0].Fields["to"])
}

func TestGlobalLogger(t *testing.T) {
	tl := NewTestLogger()
	SetLogger(tl)
	defer SetLogger(nil)

	WithField("k", "v").Info("global")
	assert.True(t, tl.HasMessage("global"))
}
