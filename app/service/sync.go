package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tylercasey2263/hubspot-contact-upload/app/dto"
	"github.com/tylercasey2263/hubspot-contact-upload/app/entity"
)

type ExistingEmailFetcher interface {
	FetchExistingEmails(ctx context.Context) entity.EmailSet
}

type ContactUploader interface {
	Upload(ctx context.Context, contacts []entity.ParentContact) dto.UploadResult
}

type SyncRunRepository interface {
	Create(ctx context.Context, run *entity.SyncRun) error
}

// Syncer runs extract, fetch, filter and upload once per call.
type Syncer struct {
	extractor *Extractor
	fetcher   ExistingEmailFetcher
	uploader  ContactUploader
	runs      SyncRunRepository
	now       func() time.Time
}

// NewSyncer wires the stages together. runs may be nil when no run-history
// store is configured.
func NewSyncer(extractor *Extractor, fetcher ExistingEmailFetcher, uploader ContactUploader, runs SyncRunRepository) *Syncer {
	return &Syncer{
		extractor: extractor,
		fetcher:   fetcher,
		uploader:  uploader,
		runs:      runs,
		now:       time.Now,
	}
}

// Sync returns an error only when the roster cannot be read. Remote failures
// are logged and show up in the summary counts.
func (s *Syncer) Sync(ctx context.Context, rosterFile string, dryRun bool) (*dto.SyncSummary, error) {
	summary := &dto.SyncSummary{
		RunID:      uuid.NewString(),
		SourceFile: rosterFile,
		DryRun:     dryRun,
		StartedAt:  s.now(),
	}
	log := logrus.WithField("run_id", summary.RunID)

	log.Infof("Reading CSV: %s", rosterFile)
	contacts, err := s.extractor.ExtractFile(rosterFile)
	if err != nil {
		return nil, err
	}
	summary.Extracted = contacts.Len()
	log.Infof("Found %d unique parent contacts (by email) in CSV", contacts.Len())

	if contacts.Len() == 0 {
		log.Info("No contacts to upload.")
		return s.finish(ctx, summary), nil
	}

	log.Info("Downloading existing contacts from CRM...")
	existing := s.fetcher.FetchExistingEmails(ctx)
	summary.Existing = len(existing)
	log.Infof("Found %d contacts already in CRM", len(existing))

	candidates := contacts.Without(existing)
	summary.Candidates = len(candidates)
	log.Infof("%d new contacts to upload", len(candidates))

	if len(candidates) == 0 {
		log.Info("All contacts already exist in CRM. Nothing to do.")
		return s.finish(ctx, summary), nil
	}

	if dryRun {
		for _, c := range candidates {
			log.WithFields(logrus.Fields{
				"email":     c.Email,
				"firstname": c.FirstName,
				"lastname":  c.LastName,
				"phone":     c.Phone,
			}).Info("Would create contact")
		}
		log.Info("Dry run, skipping upload")
		return s.finish(ctx, summary), nil
	}

	log.Info("Uploading contacts to CRM...")
	result := s.uploader.Upload(ctx, candidates)
	summary.Created = result.Created
	summary.Failed = result.Failed
	log.Infof("Done! Created: %d | Failed: %d", result.Created, result.Failed)

	return s.finish(ctx, summary), nil
}

func (s *Syncer) finish(ctx context.Context, summary *dto.SyncSummary) *dto.SyncSummary {
	summary.FinishedAt = s.now()
	if s.runs == nil {
		return summary
	}

	run := &entity.SyncRun{
		RunID:      summary.RunID,
		SourceFile: summary.SourceFile,
		Extracted:  summary.Extracted,
		Existing:   summary.Existing,
		Candidates: summary.Candidates,
		Created:    summary.Created,
		Failed:     summary.Failed,
		DryRun:     summary.DryRun,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
	}
	// Run history is informational; a write failure never fails the sync.
	if err := s.runs.Create(ctx, run); err != nil {
		logrus.WithError(err).WithField("run_id", summary.RunID).Warn("Failed to record sync run")
	}
	return summary
}
