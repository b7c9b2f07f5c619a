package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"note_ingest/internal/domain"
)

const crawlPath = "/v2/crawl"

// Config holds Firecrawl client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client submits single-page extraction jobs to the Firecrawl crawl API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// New creates a new Firecrawl client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger.With("component", "firecrawl"),
	}
}

// SubmitJob queues a crawl and returns its job id. It makes exactly one attempt.
func (c *Client) SubmitJob(ctx context.Context, req domain.ExtractionRequest) (string, error) {
	body := CrawlRequest{
		URL:   req.URL,
		Limit: req.PageLimit,
		ScrapeOptions: ScrapeOptions{
			Formats: []Format{{
				Type:   "json",
				Schema: req.Schema,
				Prompt: req.Prompt,
			}},
		},
		Webhook: Webhook{
			URL:    req.WebhookURL,
			Events: []string{"page", "completed", "failed"},
		},
	}

	resp, err := c.doRequest(ctx, body)
	if err != nil {
		return "", fmt.Errorf("start crawl: %w", err)
	}

	if !resp.Success {
		return "", fmt.Errorf("start crawl: rejected: %s", resp.Error)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("start crawl: %w", domain.ErrSubmissionFailed)
	}

	c.logger.Debug("crawl queued",
		"job_id", resp.ID,
		"url", req.URL,
		"webhook", req.WebhookURL,
	)

	return resp.ID, nil
}

func (c *Client) doRequest(ctx context.Context, payload CrawlRequest) (*CrawlResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+crawlPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "NoteIngest/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status: %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var crawlResp CrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&crawlResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &crawlResp, nil
}
