package artifact

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"note_ingest/internal/domain"
)

func TestStub_Content(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	r := NewRenderer(WithClock(fixedClock(now)))

	art := r.Stub("https://example.com/post", "schema validation failed: summary")

	assert.Contains(t, art.Content, "# FAILED PROCESSING")
	assert.Contains(t, art.Content, "**URL:** https://example.com/post")
	assert.Contains(t, art.Content, "**Time:** 2024-01-15T10:30:45Z")
	assert.Contains(t, art.Content, "**Error:** schema validation failed: summary")
	assert.Contains(t, art.Content, "#todo check this manually")
	assert.Equal(t, "20240115T103045-FAILED-example-com-post.md", art.Filename)
}

func TestStub_EmptyInputs(t *testing.T) {
	r := NewRenderer(WithClock(fixedClock(time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC))))

	art := r.Stub("", "")

	assert.Contains(t, art.Content, "**URL:** "+domain.UnknownURL)
	assert.Contains(t, art.Content, "**Error:** unknown error")
	assert.Equal(t, "20240115T103045-FAILED-unknown-url.md", art.Filename)
}

func TestStub_LongURL(t *testing.T) {
	r := NewRenderer()

	art := r.Stub("https://example.com/"+strings.Repeat("segment/", 20)+"?q=1", "boom")

	name := strings.TrimSuffix(art.Filename, ".md")
	_, sanitized, found := strings.Cut(name, "-FAILED-")
	assert.True(t, found)
	assert.LessOrEqual(t, len(sanitized), 50)
	assert.Regexp(t, `^[A-Za-z0-9-]+$`, sanitized)
	assert.False(t, strings.HasSuffix(sanitized, "-"))
}

func TestStub_MessageVerbatim(t *testing.T) {
	r := NewRenderer()
	msg := "storage: 422 Unprocessable Entity {\"message\":\"sha wasn't supplied\"}"

	art := r.Stub("https://example.com", msg)

	assert.Contains(t, art.Content, msg)
}
