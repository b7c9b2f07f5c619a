package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CallbackPayload is the extraction service's webhook envelope. Every field is
// optional; unknown or mistyped fields are ignored rather than rejected.
type CallbackPayload struct {
	Type      string
	JobID     string
	Success   *bool
	Error     string
	Documents []ResultDocument
}

// ResultDocument is one page result inside a callback.
type ResultDocument struct {
	// JSON is nil when the document carries no extracted data.
	JSON     json.RawMessage
	Metadata map[string]any
	URL      string
}

// FirstDocument returns the first result document, or a zero document.
func (p CallbackPayload) FirstDocument() ResultDocument {
	if len(p.Documents) == 0 {
		return ResultDocument{}
	}
	return p.Documents[0]
}

type Classification string

const (
	ClassFailed       Classification = "failed"
	ClassEmpty        Classification = "empty"
	ClassNoExtraction Classification = "no_extraction"
	ClassInvalid      Classification = "invalid"
	ClassValid        Classification = "valid"
)

type Outcome string

const (
	OutcomeRecorded     Outcome = "recorded"
	OutcomeStubRecorded Outcome = "stub_recorded"
	OutcomeDropped      Outcome = "dropped"
	OutcomeUnrecorded   Outcome = "unrecorded"
)

// CallbackResult describes how one webhook delivery was handled.
type CallbackResult struct {
	DeliveryID     string
	JobID          string
	EventType      string
	Classification Classification
	Outcome        Outcome
	SourceURL      string
	Path           string
	Message        string
	// Fallback is set when the success path failed and a stub was attempted instead.
	Fallback bool
}

// ParseCallbackPayload decodes a webhook body. Only a body that is not a JSON
// object is rejected.
func ParseCallbackPayload(body []byte) (CallbackPayload, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return CallbackPayload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if envelope == nil {
		return CallbackPayload{}, fmt.Errorf("%w: body is null", ErrMalformedPayload)
	}

	payload := CallbackPayload{
		Type:      stringField(envelope["type"]),
		JobID:     stringField(envelope["id"]),
		Error:     errorField(envelope["error"]),
		Documents: documentsField(envelope["data"]),
	}

	if raw, ok := envelope["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err == nil {
			payload.Success = &success
		}
	}

	return payload, nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func errorField(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, isNull(trimmed), string(trimmed) == "false":
		return ""
	case trimmed[0] == '"':
		return stringField(trimmed)
	default:
		return strings.TrimSpace(string(trimmed))
	}
}

func documentsField(raw json.RawMessage) []ResultDocument {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}

	docs := make([]ResultDocument, 0, len(items))
	for _, item := range items {
		var fields struct {
			JSON     json.RawMessage `json:"json"`
			Metadata json.RawMessage `json:"metadata"`
			URL      json.RawMessage `json:"url"`
		}
		if err := json.Unmarshal(item, &fields); err != nil {
			docs = append(docs, ResultDocument{})
			continue
		}

		doc := ResultDocument{URL: stringField(fields.URL)}
		if trimmed := bytes.TrimSpace(fields.JSON); len(trimmed) > 0 && !isNull(trimmed) {
			doc.JSON = trimmed
		}
		if len(fields.Metadata) > 0 {
			_ = json.Unmarshal(fields.Metadata, &doc.Metadata)
		}
		docs = append(docs, doc)
	}
	return docs
}

func isNull(raw []byte) bool {
	return string(raw) == "null"
}
