package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"collectsync/internal/config"
	"collectsync/internal/history"
	"collectsync/internal/logging"
	"collectsync/internal/logs"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Display the log of the latest or a specific run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			path, err := resolveLogPath(cmd.Context(), cfg, runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			chunk, err := logs.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range chunk.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(chunk.Lines) == 0 {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}

			offset := chunk.Offset
			for {
				next, err := logs.Since(cmd.Context(), path, offset, time.Second)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range next.Lines {
					fmt.Fprintln(out, line)
				}
				offset = next.Offset
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of lines to show (0 for all)")
	return cmd
}

// resolveLogPath returns the current run log, or the log recorded for runID.
func resolveLogPath(ctx context.Context, cfg *config.Config, runID string) (string, error) {
	if runID == "" {
		return logging.CurrentLogPath(cfg.Paths.LogDir), nil
	}
	store, err := history.Open(cfg)
	if err != nil {
		return "", err
	}
	defer store.Close()

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	if run.LogPath == "" {
		return "", fmt.Errorf("run %s has no log file recorded", runID)
	}
	return run.LogPath, nil
}
