package syncrun

import (
	"time"

	"collectsync/internal/catalog"
	"collectsync/internal/history"
	"collectsync/internal/notifications"
	"collectsync/internal/reconcile"
)

// Summary describes what a run saw and did. A failed run returns a partial
// summary alongside its error.
type Summary struct {
	RunID        string
	DryRun       bool
	LogPath      string
	Library      string
	StartedAt    time.Time
	FinishedAt   time.Time
	Source       catalog.SourceReport
	TargetMovies int
	Groups       int
	Skipped      reconcile.GroupReport
	Deleted      int
	Plan         reconcile.Plan
	Result       reconcile.Result
}

// Counts returns the planned counts for a dry run and the applied counts
// otherwise.
func (s *Summary) Counts() reconcile.Counts {
	if s == nil {
		return reconcile.Counts{}
	}
	if s.DryRun {
		return s.Plan.Counts()
	}
	return s.Result.Counts()
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	if s == nil || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func historyCounts(c reconcile.Counts) history.Counts {
	return history.Counts{
		Created:   c.Create,
		Added:     c.Add,
		Noop:      c.Noop,
		Unmatched: c.Unmatched,
	}
}

func notificationSummary(s *Summary) notifications.SyncSummary {
	counts := s.Counts()
	return notifications.SyncSummary{
		RunID:     s.RunID,
		DryRun:    s.DryRun,
		Created:   counts.Create,
		Added:     counts.Add,
		Noop:      counts.Noop,
		Unmatched: counts.Unmatched,
		Duration:  s.Duration(),
	}
}

// mutations converts applied create and add outcomes into history rows.
func mutations(runID string, result reconcile.Result) []history.Mutation {
	var out []history.Mutation
	for _, o := range result.Outcomes {
		if o.Kind == reconcile.IntentNoop {
			continue
		}
		out = append(out, history.Mutation{
			RunID:        runID,
			Kind:         o.Kind.String(),
			Collection:   o.Collection,
			CollectionID: o.CollectionID,
			RatingKey:    o.Movie.RatingKey,
			MovieTitle:   o.Movie.Title,
			AppliedAt:    o.AppliedAt,
		})
	}
	return out
}
