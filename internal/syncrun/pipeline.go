package syncrun

import (
	"context"
	"log/slog"

	"collectsync/internal/catalog"
	"collectsync/internal/config"
	"collectsync/internal/logging"
	"collectsync/internal/progress"
	"collectsync/internal/reconcile"
	"collectsync/internal/services"
)

type pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	reporter progress.Reporter
	summary  *Summary
	dryRun   bool
}

func (p *pipeline) run(ctx context.Context) error {
	p.reporter.Report(progress.Event{Phase: progress.PhaseConfig, Current: 1, Total: 1, Message: "configuration loaded"})

	radarrClient, err := newRadarrClient(p.cfg)
	if err != nil {
		return err
	}
	library, err := openLibrary(ctx, p.cfg, p.logger, p.reporter)
	if err != nil {
		return err
	}
	p.summary.Library = library.Section().Title

	registry, err := library.LoadRegistry(services.WithPhase(ctx, string(progress.PhaseCollections)))
	if err != nil {
		return err
	}

	resetPlanned := false
	if p.cfg.Collections.DeleteExisting {
		if p.dryRun {
			p.summary.Deleted = registry.Len()
			registry = reconcile.NewRegistry()
			resetPlanned = true
			p.logger.InfoContext(ctx, "dry run: existing collections would be deleted",
				logging.String(logging.FieldEventType, "reset_planned"),
				logging.Int("collections", p.summary.Deleted),
			)
		} else {
			deleted, err := reconcile.ResetCollections(services.WithPhase(ctx, string(progress.PhaseReset)), registry, library, p.reporter, p.logger)
			p.summary.Deleted = deleted
			if err != nil {
				return err
			}
		}
	}

	targets, err := library.LoadMovies(services.WithPhase(ctx, string(progress.PhaseMovies)))
	if err != nil {
		return err
	}
	if resetPlanned {
		targets = withoutCollections(targets)
	}
	p.summary.TargetMovies = len(targets)

	sourceCtx := services.WithPhase(ctx, string(progress.PhaseSource))
	sources, report, err := catalog.LoadSource(sourceCtx, radarrClient, p.reporter, p.logger)
	p.summary.Source = report
	if err != nil {
		return err
	}

	sourceIndex, sourceReport := reconcile.IndexSource(sources)
	p.logIndexReport(sourceCtx, "radarr", sourceReport)
	targetIndex, targetReport := reconcile.IndexTarget(targets)
	p.logIndexReport(ctx, "plex", targetReport)

	exclusions := reconcile.NewExclusionSet(p.cfg.Collections.Exclusions)
	groups, skipped := reconcile.GroupCollections(sourceIndex, p.cfg.Collections.MinForCollection, exclusions)
	p.summary.Groups = len(groups)
	p.summary.Skipped = skipped
	p.logGroupReport(ctx, skipped)

	plan := reconcile.BuildPlan(groups, targetIndex, registry)
	p.summary.Plan = plan
	counts := plan.Counts()
	p.logger.InfoContext(ctx, "reconciliation planned",
		logging.String(logging.FieldEventType, "plan_built"),
		logging.Int("source_movies", sourceIndex.Len()),
		logging.Int("target_movies", targetIndex.Len()),
		logging.Int("groups", len(groups)),
		logging.Int("create", counts.Create),
		logging.Int("add", counts.Add),
		logging.Int("noop", counts.Noop),
		logging.Int("unmatched", counts.Unmatched),
	)

	if p.dryRun {
		p.reporter.Report(progress.Event{Phase: progress.PhaseReconcile, Current: 1, Total: 1, Message: "dry run; nothing applied"})
		return nil
	}

	applier := reconcile.NewApplier(library, registry,
		reconcile.WithLogger(p.logger),
		reconcile.WithReporter(p.reporter),
		reconcile.WithConcurrency(p.cfg.Sync.Concurrency),
	)
	result, err := applier.Apply(services.WithPhase(ctx, string(progress.PhaseReconcile)), plan)
	p.summary.Result = result
	return err
}

func (p *pipeline) logIndexReport(ctx context.Context, side string, report reconcile.IndexReport) {
	for _, dup := range report.Duplicates {
		logging.InfoEvent(ctx, p.logger, "duplicate identity key; keeping later movie", "identity_duplicate",
			logging.String("side", side),
			logging.String("identity_key", dup.Key.String()),
			logging.String("replaced_path", dup.ReplacedPath),
			logging.String("kept_path", dup.KeptPath),
		)
	}
	if report.Unkeyed > 0 {
		logging.InfoEvent(ctx, p.logger, "movies without a path were not indexed", "identity_missing",
			logging.String("side", side),
			logging.Int("movies", report.Unkeyed),
		)
	}
}

func (p *pipeline) logGroupReport(ctx context.Context, report reconcile.GroupReport) {
	for _, skip := range report.BelowThreshold {
		p.logger.DebugContext(services.WithCollection(ctx, skip.Name), "collection below threshold",
			logging.String(logging.FieldEventType, "collection_below_threshold"),
			logging.Int("members", skip.Size),
			logging.Int("min_for_collection", p.cfg.Collections.MinForCollection),
		)
	}
	for _, skip := range report.Excluded {
		logging.InfoEvent(services.WithCollection(ctx, skip.Name), p.logger, "collection excluded by config", "collection_excluded",
			logging.Int("members", skip.Size),
		)
	}
}

// withoutCollections drops collection memberships so a dry run plans as if
// every existing collection had been deleted.
func withoutCollections(movies []reconcile.TargetMovie) []reconcile.TargetMovie {
	out := make([]reconcile.TargetMovie, len(movies))
	for i, movie := range movies {
		movie.Collections = nil
		out[i] = movie
	}
	return out
}
