package service

import (
	"context"
	"fmt"
	"log/slog"

	"note_ingest/internal/domain"
)

// JobReport is a ledger job together with every callback delivered for it.
type JobReport struct {
	Job        *domain.Job       `json:"job"`
	Deliveries []domain.Delivery `json:"deliveries"`
}

// JobStatus answers ledger lookups for authenticated clients.
type JobStatus struct {
	jobs       JobReader
	deliveries DeliveryReader
	secret     string
	logger     *slog.Logger
}

func NewJobStatus(jobs JobReader, deliveries DeliveryReader, logger *slog.Logger, secret string) *JobStatus {
	return &JobStatus{
		jobs:       jobs,
		deliveries: deliveries,
		secret:     secret,
		logger:     logger.With("component", "job_status"),
	}
}

func (s *JobStatus) Lookup(ctx context.Context, credential, jobID string) (*JobReport, error) {
	if !credentialMatches(s.secret, credential) {
		s.logger.Warn("unauthorized job lookup", "job_id", jobID)
		return nil, domain.ErrUnauthorized
	}

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	deliveries, err := s.deliveries.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	if deliveries == nil {
		deliveries = []domain.Delivery{}
	}

	return &JobReport{Job: job, Deliveries: deliveries}, nil
}
