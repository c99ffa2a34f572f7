package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tylercasey2263/hubspot-contact-upload/app/entity"
	"github.com/tylercasey2263/hubspot-contact-upload/app/repository"
	"github.com/tylercasey2263/hubspot-contact-upload/config"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded sync runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent sync runs",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withRunStore(func(ctx context.Context, runs *repository.SyncRunRepository) error {
			return listRuns(ctx, runs, runsLimit, os.Stdout)
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a single sync run",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withRunStore(func(ctx context.Context, runs *repository.SyncRunRepository) error {
			return showRun(ctx, runs, args[0], os.Stdout)
		})
	},
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func withRunStore(fn func(ctx context.Context, runs *repository.SyncRunRepository) error) error {
	dsn, err := config.LoadDSN()
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := openRunStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, repository.NewSyncRunRepository(db))
}

func listRuns(ctx context.Context, runs *repository.SyncRunRepository, limit int, w io.Writer) error {
	recent, err := runs.ListRecent(ctx, limit)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Fprintln(w, "no sync runs recorded")
		return nil
	}
	for _, run := range recent {
		fmt.Fprintln(w, formatRun(run))
	}
	return nil
}

func showRun(ctx context.Context, runs *repository.SyncRunRepository, runID string, w io.Writer) error {
	run, err := runs.FindByRunID(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("sync run %q not found", runID)
	}
	fmt.Fprintln(w, formatRun(run))
	return nil
}

func formatRun(run *entity.SyncRun) string {
	mode := "upload"
	if run.DryRun {
		mode = "dry-run"
	}
	return fmt.Sprintf("%s  %s  %-7s  file=%s extracted=%d existing=%d candidates=%d created=%d failed=%d took=%s",
		run.StartedAt.Format(time.RFC3339),
		run.RunID,
		mode,
		run.SourceFile,
		run.Extracted,
		run.Existing,
		run.Candidates,
		run.Created,
		run.Failed,
		run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
	)
}
