// Package schema holds the extraction contract shared by submission and callback handling.
package schema

// Prompt is the extraction instruction sent alongside the schema.
const Prompt = "Extract the main content, summary, and keywords from this page."

// Extraction returns the JSON Schema the extraction service fills in.
func Extraction() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "The main title of the article or page",
			},
			"author": map[string]any{
				"type":        "string",
				"description": "The author of the content, if available",
			},
			"date_published": map[string]any{
				"type":        "string",
				"description": "The publication date in YYYY-MM-DD format, if available",
			},
			"summary": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "A concise 3-bullet summary of the main points",
			},
			"deep_summary": map[string]any{
				"type":        "string",
				"description": "A detailed 10-15 line summary of the content logic and arguments",
			},
			"keywords": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "List of 5-10 specific keywords or entities related to the content",
			},
		},
		"required": []string{"title", "summary", "deep_summary", "keywords"},
	}
}
