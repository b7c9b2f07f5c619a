package firecrawl

// CrawlRequest is the body of POST /v2/crawl.
type CrawlRequest struct {
	URL           string        `json:"url"`
	Limit         int           `json:"limit"`
	ScrapeOptions ScrapeOptions `json:"scrapeOptions"`
	Webhook       Webhook       `json:"webhook"`
}

type ScrapeOptions struct {
	Formats []Format `json:"formats"`
}

// Format requests structured JSON extraction for each scraped page.
type Format struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema,omitempty"`
	Prompt string         `json:"prompt,omitempty"`
}

type Webhook struct {
	URL    string   `json:"url"`
	Events []string `json:"events,omitempty"`
}

// CrawlResponse is the acknowledgement returned when a crawl is queued.
type CrawlResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	URL     string `json:"url"`
	Error   string `json:"error"`
}
