package cmd

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tylercasey2263/hubspot-contact-upload/app/crm"
	"github.com/tylercasey2263/hubspot-contact-upload/app/repository"
	"github.com/tylercasey2263/hubspot-contact-upload/app/service"
	"github.com/tylercasey2263/hubspot-contact-upload/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync [roster.csv]",
	Short: "Create roster parents that are missing from the CRM",
	Long: `Reads the roster export, deduplicates parent contacts by email, downloads the
emails already present in the CRM and batch-creates the rest. The roster path
defaults to ROSTER_CSV.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "list the contacts that would be created without uploading them")
	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrMissingAccessToken) {
		// Nothing has been read or sent yet; report it and finish normally.
		logrus.WithError(err).Error("Access token not set")
		logrus.Error("Create a .env file with: CRM_ACCESS_TOKEN=your-token-here")
		return nil
	}
	if err != nil {
		return err
	}
	if err := configureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}

	rosterFile := cfg.RosterFile
	if len(args) == 1 {
		rosterFile = args[0]
	}

	ctx := context.Background()
	client := crm.NewClient(cfg.BaseURL, cfg.AccessToken, cfg.HTTPTimeout)

	var runs service.SyncRunRepository
	if cfg.HasRunStore() {
		db, err := openRunStore(ctx, cfg.MySQLDSN)
		if err != nil {
			logrus.WithError(err).Warn("Run history disabled")
		} else {
			defer db.Close()
			runs = repository.NewSyncRunRepository(db)
		}
	}

	syncer := service.NewSyncer(
		service.NewExtractor(cfg.ReservedEmailDomains),
		crm.NewReader(client, cfg),
		crm.NewUploader(client, cfg),
		runs,
	)

	_, err = syncer.Sync(ctx, rosterFile, syncDryRun)
	return err
}

func openRunStore(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err = repository.NewSyncRunRepository(db).EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
