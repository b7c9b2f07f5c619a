package service

import (
	"fmt"
	"strings"

	"note_ingest/internal/domain"
	"note_ingest/internal/schema"
)

// Classify decides how a callback payload is handled. Data is only set for
// ClassValid; err is only set for ClassFailed and ClassInvalid.
func Classify(payload domain.CallbackPayload) (domain.Classification, domain.ExtractedNoteData, error) {
	if failed(payload) {
		return domain.ClassFailed, domain.ExtractedNoteData{}, failureError(payload)
	}

	if len(payload.Documents) == 0 {
		return domain.ClassEmpty, domain.ExtractedNoteData{}, nil
	}

	doc := payload.Documents[0]
	if doc.JSON == nil {
		return domain.ClassNoExtraction, domain.ExtractedNoteData{}, nil
	}

	data, err := schema.Validate(doc.JSON)
	if err != nil {
		return domain.ClassInvalid, domain.ExtractedNoteData{}, err
	}

	return domain.ClassValid, data, nil
}

func failed(payload domain.CallbackPayload) bool {
	return payload.Error != "" ||
		(payload.Success != nil && !*payload.Success) ||
		strings.HasSuffix(payload.Type, ".failed")
}

func failureError(payload domain.CallbackPayload) error {
	jobID := payload.JobID
	if jobID == "" {
		jobID = "unknown"
	}
	detail := payload.Error
	if detail == "" {
		detail = "no error detail"
	}
	return fmt.Errorf("%w: job %s: %s", domain.ErrClassifiedFailure, jobID, detail)
}
