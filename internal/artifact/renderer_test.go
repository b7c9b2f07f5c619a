package artifact

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"note_ingest/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleNote() domain.CompleteNote {
	return domain.CompleteNote{
		ExtractedNoteData: domain.ExtractedNoteData{
			Title:         "T",
			Author:        "Ada Lovelace",
			DatePublished: "2024-01-15",
			Summary:       []string{"a", "b", "c"},
			DeepSummary:   "long form",
			Keywords:      []string{"x", "y"},
		},
		URL: "https://example.com/post",
	}
}

func TestRender_FilenameAndBody(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 59, 0, time.UTC)
	r := NewRenderer(WithClock(fixedClock(now)))

	art := r.Render(sampleNote())

	assert.Equal(t, "2024-03-09-0705-T.md", art.Filename)
	assert.Contains(t, art.Content, "# T\n")
	assert.Contains(t, art.Content, "*By Ada Lovelace*")
	assert.Contains(t, art.Content, "## Summary\n- a\n- b\n- c\n")
	assert.Contains(t, art.Content, "## Keywords\n[[x]] [[y]]\n")
	assert.Contains(t, art.Content, "## Deep Dive\nlong form\n")
	assert.Contains(t, art.Content, "https://example.com/post")
}

func TestRender_SectionOrder(t *testing.T) {
	r := NewRenderer(WithClock(fixedClock(time.Now())))
	content := r.Render(sampleNote()).Content

	order := []string{"# T", "*By", "## Summary", "## Keywords", "## Deep Dive"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(content, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestRender_Frontmatter(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	r := NewRenderer(WithClock(fixedClock(now)))

	note := sampleNote()
	note.Title = `Quotes "and" colons: here`
	content := r.Render(note).Content

	require.True(t, strings.HasPrefix(content, "---\n"))
	end := strings.Index(content[4:], "---\n")
	require.Greater(t, end, 0)

	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(content[4:4+end]), &fm))

	assert.Equal(t, `Quotes "and" colons: here`, fm["title"])
	assert.Equal(t, "2024-03-09", fm["date"])
	assert.Equal(t, "2024-01-15", fm["published_date"])
	assert.Equal(t, "https://example.com/post", fm["url"])
	assert.Equal(t, []any{"x", "y"}, fm["tags"])
}

func TestRender_MissingOptionalFields(t *testing.T) {
	r := NewRenderer(WithClock(fixedClock(time.Now())))

	note := sampleNote()
	note.Author = ""
	note.DatePublished = ""
	content := r.Render(note).Content

	assert.Contains(t, content, "*Unknown Author*")
	assert.Contains(t, content, `published_date: ""`)
}

func TestRender_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 0, 0, time.UTC)
	r := NewRenderer(WithClock(fixedClock(now)))

	first := r.Render(sampleNote())
	second := r.Render(sampleNote())

	assert.Equal(t, first, second)
}

func TestRender_FilenamePattern(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{4}-.+\.md$`)
	r := NewRenderer()

	for _, title := range []string{"T", "What? Is: this/that", "  spaced   out  ", `<>|*`} {
		note := sampleNote()
		note.Title = title
		assert.Regexp(t, pattern, r.Render(note).Filename, title)
	}
}

func TestRender_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	r := NewRenderer(WithClock(fixedClock(now)), WithLocation(loc))

	art := r.Render(sampleNote())

	assert.Equal(t, "2024-03-10-0130-T.md", art.Filename)
	assert.Contains(t, art.Content, `date: "2024-03-10"`)
}

func TestSanitizeTitle(t *testing.T) {
	tests := map[string]string{
		"Plain":                  "Plain",
		`a\b/c:d*e?f"g<h>i|j`:    "abcdefghij",
		"  many   spaces\there ": "many spaces here",
		"":                       "untitled",
		"???":                    "untitled",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeTitle(in), in)
	}
}
