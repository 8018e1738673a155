package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"collectsync/internal/logging"
	"collectsync/internal/progress"
	"collectsync/internal/services"
)

// Deleter removes collections from the target.
type Deleter interface {
	DeleteCollection(ctx context.Context, collectionID string) error
}

// ResetCollections deletes every registered collection, forgetting each one
// once the target confirms the delete. It stops at the first failure and
// returns how many collections were removed.
func ResetCollections(ctx context.Context, registry *Registry, deleter Deleter, reporter progress.Reporter, logger *slog.Logger) (int, error) {
	if registry == nil || deleter == nil {
		return 0, services.Wrap(services.ErrInvariant, "reset", "delete collections", "registry and deleter are required", nil)
	}
	if reporter == nil {
		reporter = progress.Discard
	}
	logger = logging.NewComponentLogger(logger, "reset")

	existing := registry.Collections()
	total := len(existing)
	reporter.Report(progress.Event{Phase: progress.PhaseReset, Total: total, Message: "deleting existing collections"})

	removed := 0
	for _, c := range existing {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := deleter.DeleteCollection(ctx, c.ID); err != nil {
			wrapped := services.Wrap(services.ErrTransport, "reset", "delete collection", fmt.Sprintf("%q (%s)", c.Name, c.ID), err)
			reporter.Report(progress.Event{Phase: progress.PhaseReset, Current: removed, Total: total, Message: c.Name, Err: wrapped})
			return removed, wrapped
		}
		registry.Forget(c.Name)
		removed++
		logger.InfoContext(services.WithCollection(ctx, c.Name), "collection deleted",
			logging.String(logging.FieldEventType, "collection_deleted"),
			logging.String("collection_id", c.ID),
		)
		reporter.Report(progress.Event{Phase: progress.PhaseReset, Current: removed, Total: total, Message: c.Name})
	}
	return removed, nil
}
