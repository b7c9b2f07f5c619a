package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"note_ingest/internal/domain"
)

type extractedNote struct {
	Title         string   `json:"title" validate:"required"`
	Author        string   `json:"author"`
	DatePublished string   `json:"date_published"`
	Summary       []string `json:"summary" validate:"required,min=1"`
	DeepSummary   *string  `json:"deep_summary" validate:"required"`
	Keywords      []string `json:"keywords" validate:"required,min=1"`
}

var validate = newValidator()

// Validate decodes raw extracted data and checks it against the note contract.
// Errors wrap domain.ErrSchemaValidation.
func Validate(raw json.RawMessage) (domain.ExtractedNoteData, error) {
	var note extractedNote
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&note); err != nil {
		return domain.ExtractedNoteData{}, fmt.Errorf("%w: %s", domain.ErrSchemaValidation, decodeDetail(err))
	}

	if err := validate.Struct(note); err != nil {
		return domain.ExtractedNoteData{}, fmt.Errorf("%w: %s", domain.ErrSchemaValidation, fieldDetail(err))
	}

	return domain.ExtractedNoteData{
		Title:         note.Title,
		Author:        note.Author,
		DatePublished: note.DatePublished,
		Summary:       note.Summary,
		DeepSummary:   *note.DeepSummary,
		Keywords:      note.Keywords,
	}, nil
}

func decodeDetail(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "document"
		}
		return fmt.Sprintf("%s: expected %s, got %s", field, typeErr.Type, typeErr.Value)
	}
	return err.Error()
}

func fieldDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s: failed %q", jsonPath(fe.Namespace()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func jsonPath(namespace string) string {
	if _, path, found := strings.Cut(namespace, "."); found {
		return path
	}
	return namespace
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}
