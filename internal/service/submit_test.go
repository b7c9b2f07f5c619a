package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"note_ingest/internal/domain"
	"note_ingest/internal/schema"
	"note_ingest/internal/service/mocks"
)

const (
	testSecret  = "s3cret"
	testWebhook = "https://ingest.example.com/api/callback"
)

type JobSubmitterTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	extractor *mocks.MockExtractionClient
	jobs      *mocks.MockJobStore

	submitter *JobSubmitter
	logger    *slog.Logger
}

func (s *JobSubmitterTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.extractor = mocks.NewMockExtractionClient(s.ctrl)
	s.jobs = mocks.NewMockJobStore(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.submitter = NewJobSubmitter(s.extractor, s.jobs, s.logger, SubmitterConfig{
		Secret:     testSecret,
		WebhookURL: testWebhook,
	})
}

func (s *JobSubmitterTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestJobSubmitterTestSuite(t *testing.T) {
	suite.Run(t, new(JobSubmitterTestSuite))
}

func (s *JobSubmitterTestSuite) TestSubmit_Success() {
	ctx := context.Background()

	s.extractor.EXPECT().SubmitJob(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.ExtractionRequest) (string, error) {
			s.Equal("https://example.com/post", req.URL)
			s.Equal(testWebhook, req.WebhookURL)
			s.Equal(1, req.PageLimit)
			s.Equal(schema.Prompt, req.Prompt)
			s.Equal(schema.Extraction(), req.Schema)
			return "abc123", nil
		},
	)
	s.jobs.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, job *domain.Job) error {
			s.Equal("abc123", job.ID)
			s.Equal("https://example.com/post", job.SourceURL)
			s.False(job.SubmittedAt.IsZero())
			return nil
		},
	)

	jobID, err := s.submitter.Submit(ctx, testSecret, []byte(`{"url":"https://example.com/post"}`))

	s.NoError(err)
	s.Equal("abc123", jobID)
}

func (s *JobSubmitterTestSuite) TestSubmit_WrongSecret() {
	jobID, err := s.submitter.Submit(context.Background(), "nope", []byte(`{"url":"https://example.com"}`))

	s.ErrorIs(err, domain.ErrUnauthorized)
	s.Empty(jobID)
}

func (s *JobSubmitterTestSuite) TestSubmit_MissingSecret() {
	_, err := s.submitter.Submit(context.Background(), "", []byte(`{"url":"https://example.com"}`))

	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *JobSubmitterTestSuite) TestSubmit_AuthCheckedBeforeBody() {
	_, err := s.submitter.Submit(context.Background(), "nope", []byte(`not json`))

	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *JobSubmitterTestSuite) TestSubmit_UnconfiguredSecretRejectsEverything() {
	submitter := NewJobSubmitter(s.extractor, nil, s.logger, SubmitterConfig{WebhookURL: testWebhook})

	_, err := submitter.Submit(context.Background(), "", []byte(`{"url":"https://example.com"}`))

	s.ErrorIs(err, domain.ErrUnauthorized)
}

func (s *JobSubmitterTestSuite) TestSubmit_InvalidBodies() {
	bodies := map[string]string{
		"missing url": `{}`,
		"numeric url": `{"url": 42}`,
		"null url":    `{"url": null}`,
		"blank url":   `{"url": "   "}`,
		"not json":    `url=https://example.com`,
		"json array":  `["https://example.com"]`,
		"json null":   `null`,
		"empty body":  ``,
	}

	for name, body := range bodies {
		_, err := s.submitter.Submit(context.Background(), testSecret, []byte(body))
		s.ErrorIs(err, domain.ErrInvalidInput, name)
	}
}

func (s *JobSubmitterTestSuite) TestSubmit_ExtractionError() {
	ctx := context.Background()

	s.extractor.EXPECT().SubmitJob(ctx, gomock.Any()).Return("", errors.New("connection refused"))

	_, err := s.submitter.Submit(ctx, testSecret, []byte(`{"url":"https://example.com"}`))

	s.ErrorIs(err, domain.ErrExtractionUnavailable)
	s.Contains(err.Error(), "connection refused")
}

func (s *JobSubmitterTestSuite) TestSubmit_NoJobID() {
	ctx := context.Background()

	s.extractor.EXPECT().SubmitJob(ctx, gomock.Any()).Return("", nil)

	_, err := s.submitter.Submit(ctx, testSecret, []byte(`{"url":"https://example.com"}`))

	s.ErrorIs(err, domain.ErrSubmissionFailed)
}

func (s *JobSubmitterTestSuite) TestSubmit_ClientReportsNoJobID() {
	ctx := context.Background()

	s.extractor.EXPECT().SubmitJob(ctx, gomock.Any()).Return("", fmt.Errorf("start crawl: %w", domain.ErrSubmissionFailed))

	_, err := s.submitter.Submit(ctx, testSecret, []byte(`{"url":"https://example.com"}`))

	s.ErrorIs(err, domain.ErrSubmissionFailed)
	s.NotErrorIs(err, domain.ErrExtractionUnavailable)
}

func (s *JobSubmitterTestSuite) TestSubmit_LedgerErrorIgnored() {
	ctx := context.Background()

	s.extractor.EXPECT().SubmitJob(ctx, gomock.Any()).Return("abc123", nil)
	s.jobs.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db down"))

	jobID, err := s.submitter.Submit(ctx, testSecret, []byte(`{"url":"https://example.com"}`))

	s.NoError(err)
	s.Equal("abc123", jobID)
}

func (s *JobSubmitterTestSuite) TestSubmit_WithoutLedger() {
	ctx := context.Background()
	submitter := NewJobSubmitter(s.extractor, nil, s.logger, SubmitterConfig{
		Secret:     testSecret,
		WebhookURL: testWebhook,
	})

	s.extractor.EXPECT().SubmitJob(ctx, gomock.Any()).Return("abc123", nil)

	jobID, err := submitter.Submit(ctx, testSecret, []byte(`{"url":"https://example.com"}`))

	s.NoError(err)
	s.Equal("abc123", jobID)
}
