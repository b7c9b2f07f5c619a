package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"note_ingest/internal/domain"
)

type DeliveryStore struct {
	db *sqlx.DB
}

func NewDeliveryStore(db *sqlx.DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

func (s *DeliveryStore) Insert(ctx context.Context, d *domain.Delivery) error {
	query, args, err := psql.
		Insert("callback_deliveries").
		Columns(
			"delivery_id", "job_id", "event_type", "outcome",
			"source_url", "artifact_path", "error_message", "received_at",
		).
		Values(
			d.DeliveryID, d.JobID, d.EventType, string(d.Outcome),
			d.SourceURL, d.ArtifactPath, d.ErrorMessage, d.ReceivedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert delivery: %w", err)
	}

	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert delivery %s: %w", d.DeliveryID, err)
	}
	return nil
}

func (s *DeliveryStore) ListByJob(ctx context.Context, jobID string) ([]domain.Delivery, error) {
	query, args, err := psql.
		Select(
			"delivery_id", "job_id", "event_type", "outcome",
			"source_url", "artifact_path", "error_message", "received_at",
		).
		From("callback_deliveries").
		Where("job_id = ?", jobID).
		OrderBy("received_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select deliveries: %w", err)
	}

	var deliveries []domain.Delivery
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &deliveries, query, args...); err != nil {
		return nil, fmt.Errorf("select deliveries for %s: %w", jobID, err)
	}
	return deliveries, nil
}
