package syncrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"collectsync/internal/config"
	"collectsync/internal/history"
	"collectsync/internal/logging"
	"collectsync/internal/notifications"
	"collectsync/internal/progress"
	"collectsync/internal/services"
)

// ErrAlreadyRunning is returned when another process holds the run lock.
var ErrAlreadyRunning = errors.New("another collectsync run is already running")

// Options configures a single run.
type Options struct {
	// DryRun plans without mutating the Plex library.
	DryRun bool
	// Reporter receives progress events in addition to the run log.
	Reporter progress.Reporter
	// Console mirrors run log lines to stderr.
	Console bool
	// Notifier overrides the ntfy service built from the config.
	Notifier notifications.Service
	// Now overrides the clock used for run ids and timestamps.
	Now func() time.Time
}

// RunError is returned for a run that started and then failed. LogPath names
// the run log holding the details.
type RunError struct {
	RunID    string
	LogPath  string
	Category string
	Err      error
}

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Run performs one sync: read Plex and Radarr, plan, and apply unless
// opts.DryRun is set.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Summary, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	lock, err := acquireLock(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	startedAt := now()
	runID := newRunID(startedAt)
	logPath := logging.RunLogPath(cfg.Paths.LogDir, runID)
	logger, err := newRunLogger(cfg, logPath, opts.Console)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if err := logging.EnsureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update collectsync.log link: %v\n", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	ctx = services.WithRunID(ctx, runID)
	logger = logging.NewComponentLogger(logger, "sync")

	store, err := history.Open(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "history unavailable", logging.Error(err))
		return nil, &RunError{RunID: runID, LogPath: logPath, Category: services.CategoryInternal, Err: err}
	}
	defer store.Close()

	if err := store.BeginRun(ctx, history.Run{ID: runID, StartedAt: startedAt, DryRun: opts.DryRun, LogPath: logPath}); err != nil {
		logger.ErrorContext(ctx, "record run start failed", logging.Error(err))
		return nil, &RunError{RunID: runID, LogPath: logPath, Category: services.CategoryInternal, Err: err}
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	logger.InfoContext(ctx, "sync started",
		logging.String(logging.FieldEventType, "sync_started"),
		logging.Bool("dry_run", opts.DryRun),
		logging.String("library", cfg.Plex.Library),
		logging.Int("min_for_collection", cfg.Collections.MinForCollection),
		logging.Int("exclusions", len(cfg.Collections.Exclusions)),
		logging.String("log_path", logPath),
	)

	summary := &Summary{
		RunID:     runID,
		DryRun:    opts.DryRun,
		LogPath:   logPath,
		Library:   cfg.Plex.Library,
		StartedAt: startedAt,
	}
	reporter := progress.Multi(opts.Reporter, progress.LogSink(ctx, logger))
	p := &pipeline{cfg: cfg, logger: logger, reporter: reporter, summary: summary, dryRun: opts.DryRun}
	runErr := p.run(ctx)
	summary.FinishedAt = now()

	// The run record is written even when ctx is canceled.
	recordCtx := context.WithoutCancel(ctx)
	if err := store.RecordMutations(recordCtx, runID, mutations(runID, summary.Result)); err != nil {
		logger.ErrorContext(ctx, "record mutations failed", logging.Error(err))
		runErr = errors.Join(runErr, err)
	}

	outcome := history.Outcome{
		Status:     history.StatusSucceeded,
		Counts:     historyCounts(summary.Counts()),
		FinishedAt: summary.FinishedAt,
	}
	if runErr != nil {
		outcome.Status = history.StatusFailed
		outcome.FailureCategory = services.Classify(runErr)
		outcome.ErrorMessage = strings.TrimSpace(runErr.Error())
	}
	if err := store.FinishRun(recordCtx, runID, outcome); err != nil {
		logger.ErrorContext(ctx, "record run finish failed", logging.Error(err))
		if runErr == nil {
			runErr = err
			outcome.FailureCategory = services.CategoryInternal
		}
	}

	if runErr != nil {
		logging.ErrorWithContext(logger, "sync failed", "sync_failed",
			logging.String(logging.FieldRunID, runID),
			logging.String("failure_category", outcome.FailureCategory),
			logging.Error(runErr),
			logging.String(logging.FieldErrorHint, errorHint(outcome.FailureCategory)),
		)
		if err := notifier.NotifySyncFailed(recordCtx, outcome.FailureCategory, logPath, runErr); err != nil {
			logger.WarnContext(ctx, "failure notification not sent", logging.Error(err))
		}
		return summary, &RunError{RunID: runID, LogPath: logPath, Category: outcome.FailureCategory, Err: runErr}
	}

	counts := summary.Counts()
	logger.InfoContext(ctx, "sync finished",
		logging.String(logging.FieldEventType, "sync_finished"),
		logging.Bool("dry_run", opts.DryRun),
		logging.Int("created", counts.Create),
		logging.Int("added", counts.Add),
		logging.Int("noop", counts.Noop),
		logging.Int("unmatched", counts.Unmatched),
		logging.Int("deleted", summary.Deleted),
		logging.Duration("duration", summary.Duration()),
	)
	if err := notifier.NotifySyncCompleted(ctx, notificationSummary(summary)); err != nil {
		logger.WarnContext(ctx, "completion notification not sent", logging.Error(err))
	}
	return summary, nil
}

func newRunID(startedAt time.Time) string {
	return startedAt.UTC().Format("20060102T150405.000Z") + "-" + uuid.NewString()[:8]
}

func newRunLogger(cfg *config.Config, logPath string, console bool) (*slog.Logger, error) {
	outputs := []string{logPath}
	if console {
		outputs = append(outputs, "stderr")
	}
	return logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{logPath},
	})
}

func errorHint(category string) string {
	switch category {
	case services.CategoryConfiguration:
		return "check radarr/plex urls, credentials, and the plex library name in config.toml"
	case services.CategoryTransport:
		return "check that radarr and plex are reachable, then rerun; applied changes are kept"
	case services.CategoryParse:
		return "a server returned an unexpected response; check server versions"
	case services.CategoryCanceled:
		return "run was interrupted; rerun to finish"
	default:
		return "check logs for details"
	}
}
