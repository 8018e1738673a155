package main

import (
	"github.com/spf13/cobra"
)

const rootLong = `collectsync mirrors Radarr movie collections into a Plex movie library.

Movies are matched by file (parent folder and file name), so Radarr and Plex
may mount the library under different roots. Collections are created or
extended; nothing is removed unless collections.delete_existing is set or
"collections reset --yes" is run.`

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "collectsync",
		Short:         "Mirror Radarr collections into Plex",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(
		newSyncCommand(ctx),
		newCheckCommand(ctx),
		newCollectionsCommand(ctx),
		newHistoryCommand(ctx),
		newShowCommand(ctx),
		newTestNotifyCommand(ctx),
		newConfigCommand(ctx),
	)
	return rootCmd
}
