package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"collectsync/internal/progress"
	"collectsync/internal/reconcile"
	"collectsync/internal/syncrun"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOutput bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror Radarr collections into the Plex library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			interactive := progress.Interactive(stderr) && !jsonOutput
			opts := syncrun.Options{
				DryRun:  dryRun,
				Console: !interactive && !quiet,
			}
			if interactive {
				opts.Reporter = progress.NewBar(stderr)
			}

			summary, runErr := syncrun.Run(cmd.Context(), cfg, opts)
			if closer, ok := opts.Reporter.(io.Closer); ok {
				_ = closer.Close()
			}
			if runErr != nil {
				var failed *syncrun.RunError
				if errors.As(runErr, &failed) {
					return fmt.Errorf("sync failed; review %s for details", failed.LogPath)
				}
				return runErr
			}

			if jsonOutput {
				return writeJSON(cmd, newSyncReport(summary))
			}
			renderSyncSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan changes without modifying Plex")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run summary as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not mirror the run log to stderr")
	return cmd
}

type syncReport struct {
	RunID     string          `json:"run_id"`
	DryRun    bool            `json:"dry_run"`
	Library   string          `json:"library"`
	LogPath   string          `json:"log_path"`
	Duration  string          `json:"duration"`
	Deleted   int             `json:"deleted"`
	Created   int             `json:"created"`
	Added     int             `json:"added"`
	Noop      int             `json:"noop"`
	Unmatched int             `json:"unmatched"`
	Changes   []plannedChange `json:"changes"`
}

type plannedChange struct {
	Action     string `json:"action"`
	Collection string `json:"collection"`
	Movie      string `json:"movie"`
	RatingKey  string `json:"rating_key,omitempty"`
}

func newSyncReport(summary *syncrun.Summary) syncReport {
	counts := summary.Counts()
	return syncReport{
		RunID:     summary.RunID,
		DryRun:    summary.DryRun,
		Library:   summary.Library,
		LogPath:   summary.LogPath,
		Duration:  summary.Duration().Round(time.Millisecond).String(),
		Deleted:   summary.Deleted,
		Created:   counts.Create,
		Added:     counts.Add,
		Noop:      counts.Noop,
		Unmatched: counts.Unmatched,
		Changes:   plannedChanges(summary.Plan),
	}
}

// plannedChanges flattens the plan into create and add rows, skipping no-ops.
func plannedChanges(plan reconcile.Plan) []plannedChange {
	changes := []plannedChange{}
	for _, cp := range plan.Collections {
		for _, intent := range cp.Intents {
			if intent.Kind == reconcile.IntentNoop {
				continue
			}
			changes = append(changes, plannedChange{
				Action:     intent.Kind.String(),
				Collection: intent.Collection,
				Movie:      intent.Target.Title,
				RatingKey:  intent.Target.RatingKey,
			})
		}
		for _, movie := range cp.Unmatched {
			changes = append(changes, plannedChange{
				Action:     "unmatched",
				Collection: cp.Name,
				Movie:      movie.Title,
			})
		}
	}
	return changes
}

func renderSyncSummary(out io.Writer, summary *syncrun.Summary) {
	counts := summary.Counts()
	if summary.DryRun {
		fmt.Fprintf(out, "Dry run against %q; nothing was changed.\n", summary.Library)
		changes := plannedChanges(summary.Plan)
		if len(changes) > 0 {
			rows := make([][]string, 0, len(changes))
			for _, change := range changes {
				rows = append(rows, []string{change.Action, change.Collection, change.Movie})
			}
			fmt.Fprintln(out, renderTable(textColumns("Action", "Collection", "Movie"), rows))
		}
	} else {
		fmt.Fprintf(out, "Synced %q.\n", summary.Library)
	}

	verb := func(done, planned string) string {
		if summary.DryRun {
			return planned
		}
		return done
	}
	rows := [][]string{
		{verb("Collections created", "Collections to create"), strconv.Itoa(counts.Create)},
		{verb("Movies added", "Movies to add"), strconv.Itoa(counts.Add)},
		{"Already in place", strconv.Itoa(counts.Noop)},
		{"Not found in Plex", strconv.Itoa(counts.Unmatched)},
	}
	if summary.Deleted > 0 {
		rows = append([][]string{{verb("Collections deleted", "Collections to delete"), strconv.Itoa(summary.Deleted)}}, rows...)
	}
	fmt.Fprintln(out, renderTable([]column{{title: "Result"}, {title: "Count", numeric: true}}, rows))
	fmt.Fprintf(out, "Run %s finished in %s; log: %s\n", summary.RunID, summary.Duration().Round(time.Millisecond), summary.LogPath)
}
