// Package logger provides structured logging for the sync checkpoint tooling.
//
// It wraps zerolog behind a small Logger interface so components can be handed a
// logger (or a TestLogger in tests) instead of reaching for a global:
//
//	log := logger.GetLogger().WithField("component", "checkpoint")
//	log.InfoWithFields("Checkpoint loaded", map[string]interface{}{
//	    "path":         "/data/app.db-info",
//	    "max_frame_no": uint32(42),
//	})
//
// Console output is human readable and goes to stderr. When LoggingConfig.File is
// set, JSON lines are also written to that file, rotated by lumberjack according
// to MaxSize (MB), MaxBackups, MaxAge (days) and Compress.
package logger
