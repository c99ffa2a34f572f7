package repository

import (
	"context"
	"database/sql"

	"github.com/tylercasey2263/hubspot-contact-upload/app/entity"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type SyncRunRepository struct {
	db DBTX
}

func NewSyncRunRepository(db DBTX) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS sync_runs (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			run_id CHAR(36) NOT NULL UNIQUE,
			source_file VARCHAR(1024) NOT NULL,
			extracted INT NOT NULL,
			existing INT NOT NULL,
			candidates INT NOT NULL,
			created INT NOT NULL,
			failed INT NOT NULL,
			dry_run TINYINT(1) NOT NULL,
			started_at DATETIME(6) NOT NULL,
			finished_at DATETIME(6) NOT NULL
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *SyncRunRepository) Create(ctx context.Context, run *entity.SyncRun) error {
	query := `
		INSERT INTO sync_runs (
			run_id, source_file, extracted, existing, candidates, created, failed, dry_run, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		run.RunID,
		run.SourceFile,
		run.Extracted,
		run.Existing,
		run.Candidates,
		run.Created,
		run.Failed,
		run.DryRun,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = uint64(id)
	return nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]*entity.SyncRun, error) {
	query := `
		SELECT id, run_id, source_file, extracted, existing, candidates, created, failed, dry_run, started_at, finished_at
		FROM sync_runs
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*entity.SyncRun, 0)
	for rows.Next() {
		run, err := scanSyncRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

func (r *SyncRunRepository) FindByRunID(ctx context.Context, runID string) (*entity.SyncRun, error) {
	query := `
		SELECT id, run_id, source_file, extracted, existing, candidates, created, failed, dry_run, started_at, finished_at
		FROM sync_runs
		WHERE run_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, runID)
	run, err := scanSyncRun(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return run, nil
}

type rowScanner func(dest ...interface{}) error

func scanSyncRun(scan rowScanner) (*entity.SyncRun, error) {
	run := &entity.SyncRun{}
	if err := scan(
		&run.ID,
		&run.RunID,
		&run.SourceFile,
		&run.Extracted,
		&run.Existing,
		&run.Candidates,
		&run.Created,
		&run.Failed,
		&run.DryRun,
		&run.StartedAt,
		&run.FinishedAt,
	); err != nil {
		return nil, err
	}
	return run, nil
}
