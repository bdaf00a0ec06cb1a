// Package scrape provides the Firecrawl HTTP client used by the audit
// pipeline for page scraping and keyword web search. Both operations are
// treated as black boxes: they return structured content or an error, and
// carry their own fixed timeout independent of the pipeline's retry layer.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the hosted Firecrawl API.
const DefaultBaseURL = "https://api.firecrawl.dev"

// DefaultScrapeTimeout mirrors the scrape timeout passed to Firecrawl
// (the API takes milliseconds; the HTTP client waits slightly longer).
const DefaultScrapeTimeout = 90 * time.Second

// Client calls the Firecrawl REST API.
type Client struct {
	baseURL       string
	apiKey        string
	scrapeTimeout time.Duration
	httpClient    *http.Client
}

// NewClient returns a Firecrawl client. Empty baseURL and zero timeout fall
// back to the defaults.
func NewClient(apiKey, baseURL string, scrapeTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if scrapeTimeout <= 0 {
		scrapeTimeout = DefaultScrapeTimeout
	}
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		scrapeTimeout: scrapeTimeout,
		httpClient: &http.Client{
			// Allow for queueing on the Firecrawl side beyond the scrape
			// budget itself.
			Timeout: scrapeTimeout + 30*time.Second,
		},
	}
}

// PageMetadata is the subset of Firecrawl page metadata the audit needs.
type PageMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Language    string `json:"language"`
	SourceURL   string `json:"sourceURL"`
	StatusCode  int    `json:"statusCode"`
}

// Page is the scraped content of a single URL.
type Page struct {
	Markdown string       `json:"markdown"`
	HTML     string       `json:"html"`
	Links    []string     `json:"links"`
	Metadata PageMetadata `json:"metadata"`
}

// SearchResult is one organic result for a keyword query.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
	Timeout         int      `json:"timeout"` // milliseconds
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    Page   `json:"data"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"data"`
}

// Scrape fetches url through Firecrawl, requesting markdown, raw HTML, and
// the page's links, limited to main content.
func (c *Client) Scrape(ctx context.Context, url string) (*Page, error) {
	req := scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown", "html", "links"},
		OnlyMainContent: true,
		Timeout:         int(c.scrapeTimeout.Milliseconds()),
	}

	var resp scrapeResponse
	if err := c.post(ctx, "/v1/scrape", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("firecrawl: scrape failed: %s", resp.Error)
	}
	return &resp.Data, nil
}

// Search runs a keyword web search and returns up to limit organic results.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	var resp searchResponse
	if err := c.post(ctx, "/v1/search", searchRequest{Query: keyword, Limit: limit}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("firecrawl: search failed: %s", resp.Error)
	}

	out := make([]SearchResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, SearchResult{Title: d.Title, URL: d.URL, Snippet: d.Description})
	}
	return out, nil
}

// post sends a JSON request to the given Firecrawl endpoint and decodes the
// JSON response into out. Non-2xx statuses become errors carrying the status
// code and raw body.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("firecrawl: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("firecrawl: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("firecrawl: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("firecrawl: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("firecrawl: API error (status %d): %s", resp.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("firecrawl: parse response: %w", err)
	}
	return nil
}
