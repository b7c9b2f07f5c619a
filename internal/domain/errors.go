package domain

import "errors"

var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidInput          = errors.New("invalid input")
	ErrExtractionUnavailable = errors.New("extraction service unavailable")
	ErrSubmissionFailed      = errors.New("submission returned no job id")
)

var (
	ErrMalformedPayload  = errors.New("malformed callback payload")
	ErrClassifiedFailure = errors.New("extraction job failed")
	ErrSchemaValidation  = errors.New("schema validation failed")
	ErrPersistence       = errors.New("persist artifact")
	ErrJobNotFound       = errors.New("job not found")
)
