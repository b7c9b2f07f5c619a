package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"note_ingest/internal/domain"
)

type JobStore struct {
	db *sqlx.DB
}

func NewJobStore(db *sqlx.DB) *JobStore {
	return &JobStore{db: db}
}

// Create records a submitted job. Resubmitting a known job ID is a no-op.
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	query, args, err := psql.
		Insert("ingest_jobs").
		Columns("job_id", "source_url", "submitted_at").
		Values(job.ID, job.SourceURL, job.SubmittedAt).
		Suffix("ON CONFLICT (job_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert job: %w", err)
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStore) SourceURL(ctx context.Context, jobID string) (string, error) {
	query, args, err := psql.
		Select("source_url").
		From("ingest_jobs").
		Where("job_id = ?", jobID).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select job: %w", err)
	}

	var url string
	err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &url, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	if err != nil {
		return "", fmt.Errorf("select job %s: %w", jobID, err)
	}
	return url, nil
}

// MarkOutcome stores the latest callback outcome of a job. Jobs that were
// never recorded are left untouched.
func (s *JobStore) MarkOutcome(ctx context.Context, jobID string, outcome domain.Outcome, at time.Time) error {
	query, args, err := psql.
		Update("ingest_jobs").
		Set("last_outcome", string(outcome)).
		Set("completed_at", at).
		Where("job_id = ?", jobID).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update job: %w", err)
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query, args, err := psql.
		Select("job_id", "source_url", "submitted_at", "last_outcome", "completed_at").
		From("ingest_jobs").
		Where("job_id = ?", jobID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select job: %w", err)
	}

	var job domain.Job
	err = sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &job, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("select job %s: %w", jobID, err)
	}
	return &job, nil
}
