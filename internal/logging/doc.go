// Package logging assembles structured slog loggers and formatting helpers used
// across mp4creator.
//
// It owns the console/JSON handlers, level and output plumbing, and the
// context-aware helpers that tag log lines with the conversion ID and stage.
// Each conversion can additionally tee its records into a JSON file under the
// log directory; old files are pruned by CleanupOldLogs.
package logging
