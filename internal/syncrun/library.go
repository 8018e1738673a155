package syncrun

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"collectsync/internal/catalog"
	"collectsync/internal/config"
	"collectsync/internal/logging"
	"collectsync/internal/progress"
	"collectsync/internal/reconcile"
	"collectsync/internal/services"
	"collectsync/internal/services/plex"
	"collectsync/internal/services/radarr"
)

func acquireLock(cfg *config.Config) (*flock.Flock, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return lock, nil
}

func requestTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Sync.RequestTimeout) * time.Second
}

func newRadarrClient(cfg *config.Config) (*radarr.Client, error) {
	return radarr.New(cfg.Radarr.URL, cfg.Radarr.APIKey, radarr.WithTimeout(requestTimeout(cfg)))
}

func openLibrary(ctx context.Context, cfg *config.Config, logger *slog.Logger, reporter progress.Reporter) (*catalog.Library, error) {
	client, err := plex.New(cfg.Plex.URL, cfg.Plex.Token,
		plex.WithTimeout(requestTimeout(cfg)),
		plex.WithClientIdentifier(cfg.Plex.ClientIdentifier),
	)
	if err != nil {
		return nil, err
	}
	return catalog.OpenLibrary(services.WithPhase(ctx, string(progress.PhaseLibrary)), client, cfg.Plex.Library,
		catalog.WithLogger(logger),
		catalog.WithReporter(reporter),
		catalog.WithFetchConcurrency(cfg.Sync.Concurrency),
		catalog.WithRequestsPerSecond(cfg.Sync.RequestsPerSecond),
	)
}

// Collections lists the collections in the configured Plex library and
// returns the resolved library title.
func Collections(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, []reconcile.Collection, error) {
	if cfg == nil {
		return "", nil, fmt.Errorf("config is required")
	}
	library, err := openLibrary(ctx, cfg, logger, nil)
	if err != nil {
		return "", nil, err
	}
	registry, err := library.LoadRegistry(ctx)
	if err != nil {
		return "", nil, err
	}
	return library.Section().Title, registry.Collections(), nil
}

// Reset deletes every collection in the configured Plex library outside of a
// sync. It holds the run lock so it never overlaps a sync.
func Reset(ctx context.Context, cfg *config.Config, logger *slog.Logger, reporter progress.Reporter) (int, error) {
	if cfg == nil {
		return 0, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lock, err := acquireLock(cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = lock.Unlock() }()

	library, err := openLibrary(ctx, cfg, logger, reporter)
	if err != nil {
		return 0, err
	}
	registry, err := library.LoadRegistry(ctx)
	if err != nil {
		return 0, err
	}
	return reconcile.ResetCollections(services.WithPhase(ctx, string(progress.PhaseReset)), registry, library, reporter, logger)
}
