package artifact

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"note_ingest/internal/domain"
)

const (
	stubMarker      = "FAILED"
	maxStubURLChars = 50
)

var nonAlphanumericRun = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Stub produces the failure note for a job whose real note could not be written.
// It accepts any input.
func (r *Renderer) Stub(url, message string) domain.Artifact {
	if strings.TrimSpace(url) == "" {
		url = domain.UnknownURL
	}
	if strings.TrimSpace(message) == "" {
		message = "unknown error"
	}

	now := r.now().UTC()

	content := strings.Join([]string{
		"# " + stubMarker + " PROCESSING",
		"",
		"**URL:** " + url,
		"**Time:** " + now.Format(time.RFC3339),
		"**Error:** " + message,
		"",
		"---",
		"",
		"#todo check this manually. The system failed to extract content.",
	}, "\n") + "\n"

	return domain.Artifact{
		Filename: fmt.Sprintf("%s-%s-%s.md", now.Format("20060102T150405"), stubMarker, sanitizeURL(url)),
		Content:  content,
	}
}

func sanitizeURL(url string) string {
	if _, rest, found := strings.Cut(url, "://"); found {
		url = rest
	}

	clean := strings.Trim(nonAlphanumericRun.ReplaceAllString(url, "-"), "-")
	if len(clean) > maxStubURLChars {
		clean = strings.TrimRight(clean[:maxStubURLChars], "-")
	}
	if clean == "" {
		return "unknown-url"
	}
	return clean
}
