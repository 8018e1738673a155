package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// PruneRunLogs deletes per-run log files in logDir whose modification time is
// older than retentionDays, never touching the paths in keep. It returns the
// number of files removed. A retentionDays value of 0 disables pruning.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, keep ...string) int {
	if retentionDays <= 0 || logDir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(logDir, RunLogPattern))
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range matches {
		if slices.Contains(keep, path) {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log not pruned", "log_retention_failed",
				String("log_path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on paths.log_dir"),
				String(FieldImpact, "old run log stays on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("run log pruned", String("log_path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}
