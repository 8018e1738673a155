package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"collectsync/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, runs)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunsTable(runs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output runs as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the mutations applied by one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runID := strings.TrimSpace(args[0])
			run, err := store.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			mutations, err := store.Mutations(cmd.Context(), runID)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, struct {
					Run       history.Run        `json:"run"`
					Mutations []history.Mutation `json:"mutations"`
				}{Run: run, Mutations: mutations})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderRunsTable([]history.Run{run}, time.Now()))
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error: %s\n", run.ErrorMessage)
			}
			if run.LogPath != "" {
				fmt.Fprintf(out, "Log: %s\n", run.LogPath)
			}
			if len(mutations) == 0 {
				fmt.Fprintln(out, "No mutations recorded")
				return nil
			}
			rows := make([][]string, 0, len(mutations))
			for _, m := range mutations {
				rows = append(rows, []string{m.Kind, m.Collection, m.CollectionID, m.MovieTitle, m.RatingKey})
			}
			fmt.Fprintln(out, renderTable([]column{
				{title: "Action"},
				{title: "Collection"},
				{title: "Collection ID", numeric: true},
				{title: "Movie"},
				{title: "Rating Key", numeric: true},
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run and its mutations as JSON")
	return cmd
}

var runColumns = []column{
	{title: "Run"},
	{title: "Started"},
	{title: "Duration", numeric: true},
	{title: "Status"},
	{title: "Dry Run"},
	{title: "Created", numeric: true},
	{title: "Added", numeric: true},
	{title: "Noop", numeric: true},
	{title: "Unmatched", numeric: true},
}

func renderRunsTable(runs []history.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Millisecond).String()
		}
		status := string(run.Status)
		if run.FailureCategory != "" {
			status += " (" + run.FailureCategory + ")"
		}
		rows = append(rows, []string{
			run.ID,
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			duration,
			status,
			yesNo(run.DryRun),
			strconv.Itoa(run.Counts.Created),
			strconv.Itoa(run.Counts.Added),
			strconv.Itoa(run.Counts.Noop),
			strconv.Itoa(run.Counts.Unmatched),
		})
	}
	return renderTable(runColumns, rows)
}
