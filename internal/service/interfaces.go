package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"note_ingest/internal/domain"
)

type ExtractionClient interface {
	SubmitJob(ctx context.Context, req domain.ExtractionRequest) (string, error)
}

type StorageClient interface {
	PutFile(ctx context.Context, path, content string) (string, error)
}

type Renderer interface {
	Render(note domain.CompleteNote) domain.Artifact
	Stub(url, message string) domain.Artifact
}

type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	SourceURL(ctx context.Context, jobID string) (string, error)
	MarkOutcome(ctx context.Context, jobID string, outcome domain.Outcome, at time.Time) error
}

type DeliveryStore interface {
	Insert(ctx context.Context, delivery *domain.Delivery) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, delivery *domain.Delivery) error
	Close() error
}

type DeliveryGuard interface {
	Claim(ctx context.Context, jobID string) (bool, error)
	Release(ctx context.Context, jobID string) error
}

type JobReader interface {
	Get(ctx context.Context, jobID string) (*domain.Job, error)
}

type DeliveryReader interface {
	ListByJob(ctx context.Context, jobID string) ([]domain.Delivery, error)
}
