package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"collectsync/internal/progress"
	"collectsync/internal/syncrun"
)

func newCollectionsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Inspect or reset Plex collections",
	}
	cmd.AddCommand(newCollectionsListCommand(ctx))
	cmd.AddCommand(newCollectionsResetCommand(ctx))
	return cmd
}

func newCollectionsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collections in the configured Plex library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			library, collections, err := syncrun.Collections(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			if jsonOutput {
				type entry struct {
					Name string `json:"name"`
					ID   string `json:"id"`
				}
				entries := make([]entry, 0, len(collections))
				for _, c := range collections {
					entries = append(entries, entry{Name: c.Name, ID: c.ID})
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(collections) == 0 {
				fmt.Fprintf(out, "No collections in %q\n", library)
				return nil
			}
			rows := make([][]string, 0, len(collections))
			for _, c := range collections {
				rows = append(rows, []string{c.Name, c.ID})
			}
			fmt.Fprintln(out, renderTable([]column{{title: "Collection"}, {title: "ID", numeric: true}}, rows))
			fmt.Fprintf(out, "%d collections in %q\n", len(collections), library)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output collections as JSON")
	return cmd
}

func newCollectionsResetCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every collection in the configured Plex library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to delete collections without --yes")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reporter := progress.NewBar(cmd.ErrOrStderr())
			deleted, err := syncrun.Reset(cmd.Context(), cfg, ctx.logger(), reporter)
			if closer, ok := reporter.(io.Closer); ok {
				_ = closer.Close()
			}
			if err != nil {
				return fmt.Errorf("reset collections (%d deleted before failure): %w", deleted, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d collections\n", deleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deletion of every collection")
	return cmd
}
