package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// LogCheckpointAdvance logs a durable marker change on the sidecar at path
func LogCheckpointAdvance(l Logger, path string, from, to uint32) {
	fields := map[string]interface{}{
		"path":      path,
		"from":      from,
		"to":        to,
		"unchanged": from == to,
	}
	if to < from {
		l.WarnWithFields("Checkpoint moved backwards", fields)
		return
	}
	l.DebugWithFields("Checkpoint advanced", fields)
}

// LogSyncRound logs the outcome of one pull/apply/advance round
func LogSyncRound(l Logger, roundID string, after, last uint32, frames int, err error) {
	fields := map[string]interface{}{
		"round_id":    roundID,
		"after_frame": after,
		"last_frame":  last,
		"frames":      frames,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("Sync round failed", fields)
		return
	}
	l.InfoWithFields("Sync round completed", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
