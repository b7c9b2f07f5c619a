package domain

import "time"

// Job is a submission recorded in the ledger.
type Job struct {
	ID          string     `db:"job_id" json:"job_id"`
	SourceURL   string     `db:"source_url" json:"source_url"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
	LastOutcome *string    `db:"last_outcome" json:"last_outcome,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Delivery is the ledger and event record of one handled callback.
type Delivery struct {
	DeliveryID   string    `db:"delivery_id" json:"delivery_id"`
	JobID        string    `db:"job_id" json:"job_id,omitempty"`
	EventType    string    `db:"event_type" json:"event_type,omitempty"`
	Outcome      Outcome   `db:"outcome" json:"outcome"`
	SourceURL    string    `db:"source_url" json:"source_url,omitempty"`
	ArtifactPath string    `db:"artifact_path" json:"artifact_path,omitempty"`
	ErrorMessage string    `db:"error_message" json:"error,omitempty"`
	ReceivedAt   time.Time `db:"received_at" json:"received_at"`
}

// NewDelivery builds the record for a finished callback.
func NewDelivery(result CallbackResult, at time.Time) *Delivery {
	return &Delivery{
		DeliveryID:   result.DeliveryID,
		JobID:        result.JobID,
		EventType:    result.EventType,
		Outcome:      result.Outcome,
		SourceURL:    result.SourceURL,
		ArtifactPath: result.Path,
		ErrorMessage: result.Message,
		ReceivedAt:   at,
	}
}
