package domain

// UnknownURL stands in for a source URL that could not be recovered.
const UnknownURL = "unknown-url"

// ExtractedNoteData is the structured result produced by the extraction service.
type ExtractedNoteData struct {
	Title         string
	Author        string
	DatePublished string
	Summary       []string
	DeepSummary   string
	Keywords      []string
}

// CompleteNote is validated note data bound to the page it came from.
type CompleteNote struct {
	ExtractedNoteData
	URL string
}

// Artifact is a rendered document ready to be handed to storage.
type Artifact struct {
	Filename string
	Content  string
}

type SubmissionRequest struct {
	URL string
}

// ExtractionRequest is what the pipeline hands to the extraction service.
type ExtractionRequest struct {
	URL        string
	Schema     map[string]any
	Prompt     string
	WebhookURL string
	PageLimit  int
}
