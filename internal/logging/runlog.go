package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	runLogPrefix   = "collectsync-"
	runLogSuffix   = ".log"
	currentLogName = "collectsync.log"
	// RunLogPattern matches per-run log files for retention.
	RunLogPattern = runLogPrefix + "*" + runLogSuffix
)

// RunLogPath returns the per-run log file path inside logDir.
func RunLogPath(logDir, runID string) string {
	return filepath.Join(logDir, runLogPrefix+runID+runLogSuffix)
}

// CurrentLogPath returns the path of the pointer to the newest run log.
func CurrentLogPath(logDir string) string {
	return filepath.Join(logDir, currentLogName)
}

// EnsureCurrentLogPointer points collectsync.log at target, preferring a
// symlink and falling back to a hard link.
func EnsureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := CurrentLogPath(logDir)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
