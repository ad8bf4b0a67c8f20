package crawler

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultFetchTimeout bounds a single page request.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultUserAgent identifies the crawler to web servers.
	DefaultUserAgent = "siterag/1.0 (+https://github.com/sha1n/siterag)"

	// MaxContentSize caps the number of body bytes read per page (5MB).
	MaxContentSize = 5 * 1024 * 1024
)

// Page is a fetched document.
type Page struct {
	// URL is the final URL after redirects.
	URL  string
	Body []byte
}

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPFetcher fetches pages over HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given per-request timeout.
// Zero values select DefaultFetchTimeout and DefaultUserAgent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch performs a GET request. Non-2xx responses and non-HTML content types
// are errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil && !isHTML(mediaType) {
			return nil, fmt.Errorf("unsupported content type %q", mediaType)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return &Page{URL: resp.Request.URL.String(), Body: body}, nil
}

func isHTML(mediaType string) bool {
	return mediaType == "text/html" || mediaType == "application/xhtml+xml" || strings.HasPrefix(mediaType, "text/plain")
}
