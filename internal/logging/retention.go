package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const conversionLogPrefix = "conversion-"

// CleanupOldLogs removes conversion log files in dir older than retentionDays.
// A retentionDays value of 0 disables pruning. Returns the number of files removed.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, conversionLogPrefix) || filepath.Ext(name) != ".log" {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Debug("old conversion logs pruned",
			Int("count", removed),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}
