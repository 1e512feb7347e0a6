package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"lbpress/internal/export"
	"lbpress/internal/feed"
	"lbpress/internal/ingest"
	"lbpress/internal/publish"
)

func newFetchFeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-feed",
		Short: "Fetch reviews from the Letterboxd RSS feed into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			adapter := feed.New(http.DefaultClient, ctx.cfg.Letterboxd.WatchedDatePreferred(), ctx.log)
			records, err := adapter.Fetch(cmd.Context(), ctx.cfg.Letterboxd.User)
			if err != nil {
				return fmt.Errorf("fetch feed: %w", err)
			}

			return ingest.New(store, ctx.log, ctx.dryRun).Store(cmd.Context(), records)
		},
	}
}

func newFetchExportCommand(ctx *commandContext) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "fetch-export",
		Short: "Fetch reviews from a Letterboxd CSV export into the local store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f, err := os.Open(csvPath) //nolint:gosec // path comes from the CLI
			if err != nil {
				return fmt.Errorf("open export: %w", err)
			}
			defer func() { _ = f.Close() }()

			probe := export.NewSpoilerProbe(http.DefaultClient)
			adapter := export.New(probe, ctx.log)
			records, err := adapter.Read(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}

			return ingest.New(store, ctx.log, ctx.dryRun).Store(cmd.Context(), records)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "reviews.csv", "Letterboxd export file to read from")
	return cmd
}

func newPublishSingleCommand(ctx *commandContext) *cobra.Command {
	var startDate, endDate string

	cmd := &cobra.Command{
		Use:   "publish-single",
		Short: "Publish one post per stored review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			start, end, err := parseDateRange(startDate, endDate)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pub := publish.New(store, ctx.remoteClient(), ctx.renderOptions(), ctx.log, ctx.dryRun)
			return pub.Singles(cmd.Context(), start, end)
		},
	}

	addDateFlags(cmd, &startDate, &endDate)
	return cmd
}

func newPublishWeeklyCommand(ctx *commandContext) *cobra.Command {
	var (
		startDate, endDate string
		fixedWindows       bool
	)

	cmd := &cobra.Command{
		Use:   "publish-weekly",
		Short: "Publish one digest post per week of stored reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			start, end, err := parseDateRange(startDate, endDate)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			pub := publish.New(store, ctx.remoteClient(), ctx.renderOptions(), ctx.log, ctx.dryRun)
			return pub.Weekly(cmd.Context(), start, end, fixedWindows)
		},
	}

	addDateFlags(cmd, &startDate, &endDate)
	cmd.Flags().BoolVar(&fixedWindows, "fixed-windows", false, "Group by 7-day windows from the start date instead of ISO weeks")
	return cmd
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Re-sanitize stored reviews that still contain poster artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return ingest.New(store, ctx.log, ctx.dryRun).Clean(cmd.Context())
		},
	}
}

func newBackfillSpoilersCommand(ctx *commandContext) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "backfill-spoilers",
		Short: "Probe each export row for spoilers and emit the CSV with a Spoilers column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}

			f, err := os.Open(csvPath) //nolint:gosec // path comes from the CLI
			if err != nil {
				return fmt.Errorf("open export: %w", err)
			}
			defer func() { _ = f.Close() }()

			probe := export.NewSpoilerProbe(http.DefaultClient)
			adapter := export.New(probe, ctx.log)
			return adapter.Backfill(cmd.Context(), f, os.Stdout, ctx.dryRun)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "reviews.csv", "Letterboxd export file to read from")
	return cmd
}

func newTermsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "terms {categories|tags}",
		Short:     "List remote taxonomy term ids",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"categories", "tags"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}

			client := ctx.remoteClient()
			if err := client.Discover(cmd.Context()); err != nil {
				return fmt.Errorf("discover API root: %w", err)
			}
			terms, err := client.Terms(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, t := range terms {
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s\n", t.ID, t.Name)
			}
			return nil
		},
	}
}

func addDateFlags(cmd *cobra.Command, start, end *string) {
	cmd.Flags().StringVar(start, "start-date", "1970-01-05", "Start date in YYYY-MM-DD format")
	cmd.Flags().StringVar(end, "end-date", "", "End date in YYYY-MM-DD format (defaults to today)")
}
