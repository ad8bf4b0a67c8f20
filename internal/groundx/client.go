// Package groundx is a minimal REST client for the GroundX RAG platform:
// website crawl ingestion, ingestion status and bucket search.
package groundx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sha1n/siterag/internal/apierr"
)

const (
	// DefaultBaseURL is the public GroundX API endpoint.
	DefaultBaseURL = "https://api.groundx.ai/api"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 30 * time.Second

	service = "groundx"

	maxResponseSize = 10 * 1024 * 1024
)

// Ingestion stages reported by the platform.
const (
	StatusQueued   = "queued"
	StatusTraining = "training"
	StatusComplete = "complete"
)

// Config holds the client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// WebsiteSource describes one website for the platform to crawl.
type WebsiteSource struct {
	BucketID   int            `json:"bucketId"`
	SourceURL  string         `json:"sourceUrl"`
	Cap        int            `json:"cap"`
	Depth      int            `json:"depth"`
	SearchData map[string]any `json:"searchData,omitempty"`
}

// Ingest is the state of an ingestion process.
type Ingest struct {
	ProcessID string    `json:"processId"`
	Status    string    `json:"status"`
	Progress  *Progress `json:"progress,omitempty"`
}

// Progress breaks an ingestion down by document state.
type Progress struct {
	Complete   *ProgressCount `json:"complete,omitempty"`
	Processing *ProgressCount `json:"processing,omitempty"`
	Errors     *ProgressCount `json:"errors,omitempty"`
}

// ProgressCount is the number of documents in one state.
type ProgressCount struct {
	Total int `json:"total"`
}

// DocumentsIndexed returns the number of completed documents, 0 when unknown.
func (i *Ingest) DocumentsIndexed() int {
	if i == nil || i.Progress == nil || i.Progress.Complete == nil {
		return 0
	}
	return i.Progress.Complete.Total
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Score     float64 `json:"score"`
	SourceURL string  `json:"sourceUrl"`
	Text      string  `json:"text"`
}

// Search is the answer of a bucket search: an aggregate score on a 0-100
// scale, the hit count, a text span for LLM consumption and the ranked hits.
type Search struct {
	Count   int            `json:"count"`
	Score   float64        `json:"score"`
	Text    string         `json:"text"`
	Results []SearchResult `json:"results"`
}

type ingestResponse struct {
	Ingest *Ingest `json:"ingest"`
}

type searchResponse struct {
	Search *Search `json:"search"`
}

type crawlRequest struct {
	Websites []WebsiteSource `json:"websites"`
}

type searchRequest struct {
	Query string `json:"query"`
}

// Client talks to the GroundX API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// New creates a client. The API key is required.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("groundx API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}, nil
}

// CrawlWebsite asks the platform to crawl and index the given websites.
func (c *Client) CrawlWebsite(ctx context.Context, websites ...WebsiteSource) (*Ingest, error) {
	const op = "crawl_website"
	if len(websites) == 0 {
		return nil, errors.New("at least one website is required")
	}

	var resp ingestResponse
	if err := c.do(ctx, op, http.MethodPost, "/v1/ingest/documents/website", crawlRequest{Websites: websites}, &resp); err != nil {
		return nil, err
	}
	if resp.Ingest == nil || resp.Ingest.ProcessID == "" {
		return nil, apierr.Malformed(service, op, errors.New("response has no ingest process"))
	}
	return resp.Ingest, nil
}

// ProcessingStatus returns the current state of an ingestion process.
func (c *Client) ProcessingStatus(ctx context.Context, processID string) (*Ingest, error) {
	const op = "processing_status"
	if processID == "" {
		return nil, errors.New("process ID is required")
	}

	var resp ingestResponse
	if err := c.do(ctx, op, http.MethodGet, "/v1/ingest/"+url.PathEscape(processID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Ingest == nil || resp.Ingest.Status == "" {
		return nil, apierr.Malformed(service, op, errors.New("response has no ingest status"))
	}
	if resp.Ingest.ProcessID == "" {
		resp.Ingest.ProcessID = processID
	}
	return resp.Ingest, nil
}

// Search queries the content of a bucket.
func (c *Client) Search(ctx context.Context, bucketID int, query string) (*Search, error) {
	const op = "search"

	var resp searchResponse
	path := "/v1/search/" + strconv.Itoa(bucketID)
	if err := c.do(ctx, op, http.MethodPost, path, searchRequest{Query: query}, &resp); err != nil {
		return nil, err
	}
	if resp.Search == nil {
		return nil, apierr.Malformed(service, op, errors.New("response has no search section"))
	}
	return resp.Search, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return apierr.FromTransport(service, op, err)
	}
	c.logger.Debug("GroundX request", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apierr.FromStatus(service, op, resp.StatusCode, errorMessage(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apierr.Malformed(service, op, err)
	}
	return nil
}

// errorMessage extracts {"message": ...} from an error body, falling back to the raw body.
func errorMessage(data []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return string(bytes.TrimSpace(data))
}
