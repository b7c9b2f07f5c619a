// Package artifact turns notes and failures into markdown documents.
package artifact

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"note_ingest/internal/domain"
)

var (
	reservedChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Renderer builds note and stub artifacts. It performs no I/O.
type Renderer struct {
	now      func() time.Time
	location *time.Location
}

type Option func(*Renderer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// WithLocation sets the zone used for filename and capture-date stamps.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		now:      time.Now,
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type frontmatter struct {
	Title         string   `yaml:"title"`
	Date          string   `yaml:"date"`
	PublishedDate string   `yaml:"published_date"`
	URL           string   `yaml:"url"`
	Tags          []string `yaml:"tags,flow"`
}

// Render produces the note document and its filename.
func (r *Renderer) Render(note domain.CompleteNote) domain.Artifact {
	now := r.now().In(r.location)

	return domain.Artifact{
		Filename: fmt.Sprintf("%s-%s.md", now.Format("2006-01-02-1504"), SanitizeTitle(note.Title)),
		Content:  r.header(note, now) + "\n" + body(note),
	}
}

func (r *Renderer) header(note domain.CompleteNote, now time.Time) string {
	tags := note.Keywords
	if tags == nil {
		tags = []string{}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err := enc.Encode(frontmatter{
		Title:         note.Title,
		Date:          now.Format(time.DateOnly),
		PublishedDate: note.DatePublished,
		URL:           note.URL,
		Tags:          tags,
	})
	if err != nil {
		// Plain strings and a string slice always encode.
		panic(fmt.Sprintf("encode frontmatter: %v", err))
	}
	_ = enc.Close()

	buf.WriteString("---\n")
	return buf.String()
}

func body(note domain.CompleteNote) string {
	byline := "*Unknown Author*"
	if note.Author != "" {
		byline = fmt.Sprintf("*By %s*", note.Author)
	}

	lines := []string{
		"# " + note.Title,
		"",
		byline,
		"",
		"## Summary",
	}
	for _, bullet := range note.Summary {
		lines = append(lines, "- "+bullet)
	}

	links := make([]string, len(note.Keywords))
	for i, k := range note.Keywords {
		links[i] = "[[" + k + "]]"
	}

	lines = append(lines,
		"",
		"## Keywords",
		strings.Join(links, " "),
		"",
		"## Deep Dive",
		note.DeepSummary,
	)
	return strings.Join(lines, "\n") + "\n"
}

// SanitizeTitle strips characters that are reserved in file names and
// collapses whitespace.
func SanitizeTitle(title string) string {
	clean := reservedChars.ReplaceAllString(title, "")
	clean = strings.TrimSpace(whitespaceRun.ReplaceAllString(clean, " "))
	if clean == "" {
		return "untitled"
	}
	return clean
}
