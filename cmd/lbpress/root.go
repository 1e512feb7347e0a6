package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "lbpress",
		Short:         "Aggregate Letterboxd reviews and publish them to WordPress",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "lbpress.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&ctx.dryRun, "dry-run", false, "Don't write to WordPress or the local database")

	rootCmd.AddCommand(newFetchFeedCommand(ctx))
	rootCmd.AddCommand(newFetchExportCommand(ctx))
	rootCmd.AddCommand(newPublishSingleCommand(ctx))
	rootCmd.AddCommand(newPublishWeeklyCommand(ctx))
	rootCmd.AddCommand(newCleanCommand(ctx))
	rootCmd.AddCommand(newBackfillSpoilersCommand(ctx))
	rootCmd.AddCommand(newTermsCommand(ctx))

	return rootCmd
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
