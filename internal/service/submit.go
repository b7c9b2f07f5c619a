package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"note_ingest/internal/domain"
	"note_ingest/internal/schema"
)

type SubmitterConfig struct {
	Secret     string
	WebhookURL string
}

// JobSubmitter authenticates submissions and hands them to the extraction service.
type JobSubmitter struct {
	extractor  ExtractionClient
	jobs       JobStore
	secret     string
	webhookURL string
	logger     *slog.Logger
}

// NewJobSubmitter creates a submitter. jobs may be nil when no ledger is configured.
func NewJobSubmitter(
	extractor ExtractionClient,
	jobs JobStore,
	logger *slog.Logger,
	cfg SubmitterConfig,
) *JobSubmitter {
	return &JobSubmitter{
		extractor:  extractor,
		jobs:       jobs,
		secret:     cfg.Secret,
		webhookURL: cfg.WebhookURL,
		logger:     logger.With("component", "submitter"),
	}
}

// Submit checks the credential and body, then starts a single-page extraction
// job and returns its id.
func (s *JobSubmitter) Submit(ctx context.Context, credential string, body []byte) (string, error) {
	if !credentialMatches(s.secret, credential) {
		s.logger.Warn("unauthorized submission attempt")
		return "", domain.ErrUnauthorized
	}

	req, err := ParseSubmission(body)
	if err != nil {
		return "", err
	}

	logger := s.logger.With("url", req.URL)

	jobID, err := s.extractor.SubmitJob(ctx, domain.ExtractionRequest{
		URL:        req.URL,
		Schema:     schema.Extraction(),
		Prompt:     schema.Prompt,
		WebhookURL: s.webhookURL,
		PageLimit:  1,
	})
	if errors.Is(err, domain.ErrSubmissionFailed) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtractionUnavailable, err)
	}
	if jobID == "" {
		return "", domain.ErrSubmissionFailed
	}

	logger.Info("extraction job submitted", "job_id", jobID)

	if s.jobs != nil {
		job := &domain.Job{
			ID:          jobID,
			SourceURL:   req.URL,
			SubmittedAt: time.Now().UTC(),
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			logger.Error("failed to record job", "job_id", jobID, "error", err)
		}
	}

	return jobID, nil
}

// credentialMatches compares in constant time. An empty secret rejects everything.
func credentialMatches(secret, credential string) bool {
	if secret == "" || credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), []byte(secret)) == 1
}

// ParseSubmission decodes a submission body. Errors wrap domain.ErrInvalidInput.
func ParseSubmission(body []byte) (domain.SubmissionRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return domain.SubmissionRequest{}, fmt.Errorf("%w: body must be a JSON object", domain.ErrInvalidInput)
	}

	raw, ok := fields["url"]
	if !ok {
		return domain.SubmissionRequest{}, fmt.Errorf("%w: missing url", domain.ErrInvalidInput)
	}

	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return domain.SubmissionRequest{}, fmt.Errorf("%w: url must be a string", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(url) == "" {
		return domain.SubmissionRequest{}, fmt.Errorf("%w: url is empty", domain.ErrInvalidInput)
	}

	return domain.SubmissionRequest{URL: url}, nil
}
