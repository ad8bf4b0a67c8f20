package groundx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sha1n/siterag/internal/apierr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{APIKey: "secret", BaseURL: server.URL, Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestCrawlWebsite(t *testing.T) {
	var got crawlRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/ingest/documents/website" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("X-API-Key = %q, want %q", r.Header.Get("X-API-Key"), "secret")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"ingest":{"processId":"daa8e33b","status":"queued"}}`))
	})

	ingest, err := c.CrawlWebsite(context.Background(), WebsiteSource{
		BucketID:   42,
		SourceURL:  "https://www.itnb.ch/en",
		Cap:        500,
		Depth:      5,
		SearchData: map[string]any{"total_sections": 7},
	})
	if err != nil {
		t.Fatalf("CrawlWebsite failed: %v", err)
	}

	if ingest.ProcessID != "daa8e33b" || ingest.Status != StatusQueued {
		t.Errorf("Unexpected ingest: %+v", ingest)
	}
	if len(got.Websites) != 1 {
		t.Fatalf("Websites = %d, want 1", len(got.Websites))
	}
	site := got.Websites[0]
	if site.BucketID != 42 || site.Cap != 500 || site.Depth != 5 || site.SourceURL != "https://www.itnb.ch/en" {
		t.Errorf("Unexpected website source: %+v", site)
	}
	if site.SearchData["total_sections"] != float64(7) {
		t.Errorf("SearchData = %v", site.SearchData)
	}
}

func TestCrawlWebsite_MissingIngest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.CrawlWebsite(context.Background(), WebsiteSource{BucketID: 1})
	if !apierr.IsKind(err, apierr.KindMalformedResponse) {
		t.Errorf("Expected malformed response, got %v", err)
	}
}

func TestProcessingStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/ingest/abc-123" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"ingest":{"processId":"abc-123","status":"complete","progress":{"complete":{"total":17}}}}`))
	})

	ingest, err := c.ProcessingStatus(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("ProcessingStatus failed: %v", err)
	}
	if ingest.Status != StatusComplete {
		t.Errorf("Status = %q, want %q", ingest.Status, StatusComplete)
	}
	if ingest.DocumentsIndexed() != 17 {
		t.Errorf("DocumentsIndexed = %d, want 17", ingest.DocumentsIndexed())
	}
}

func TestProcessingStatus_NoProgress(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ingest":{"status":"training"}}`))
	})

	ingest, err := c.ProcessingStatus(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ProcessingStatus failed: %v", err)
	}
	if ingest.DocumentsIndexed() != 0 {
		t.Errorf("DocumentsIndexed = %d, want 0", ingest.DocumentsIndexed())
	}
	if ingest.ProcessID != "p1" {
		t.Errorf("ProcessID = %q, want %q", ingest.ProcessID, "p1")
	}
}

func TestSearch(t *testing.T) {
	var got searchRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search/42" {
			t.Errorf("Path = %q, want /v1/search/42", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"search":{"count":2,"score":73.5,"text":"ITNB is a Swiss company.",
			"results":[{"score":80.1,"sourceUrl":"https://www.itnb.ch/en/about","text":"About"},{"score":60,"sourceUrl":"https://www.itnb.ch/en"}]}}`))
	})

	search, err := c.Search(context.Background(), 42, "What is ITNB?")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if got.Query != "What is ITNB?" {
		t.Errorf("Query = %q", got.Query)
	}
	if search.Count != 2 || search.Score != 73.5 || search.Text != "ITNB is a Swiss company." {
		t.Errorf("Unexpected search: %+v", search)
	}
	if len(search.Results) != 2 || search.Results[0].SourceURL != "https://www.itnb.ch/en/about" {
		t.Errorf("Unexpected results: %+v", search.Results)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apierr.Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"invalid api key"}`, apierr.KindAuth},
		{"not found", http.StatusNotFound, `{"message":"bucket not found"}`, apierr.KindNotFound},
		{"rate limited", http.StatusTooManyRequests, ``, apierr.KindRateLimited},
		{"server error", http.StatusBadGateway, `oops`, apierr.KindUnavailable},
		{"malformed", http.StatusOK, `{"search":`, apierr.KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Search(context.Background(), 1, "q")

			var apiErr *apierr.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *apierr.Error, got %v", err)
			}
			if apiErr.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", apiErr.Kind, tt.kind)
			}
			if apiErr.Service != "groundx" || apiErr.Op != "search" {
				t.Errorf("Unexpected service/op: %s/%s", apiErr.Service, apiErr.Op)
			}
		})
	}
}

func TestClient_ErrorMessageFromBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	})

	_, err := c.ProcessingStatus(context.Background(), "p")

	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) || apiErr.Message != "invalid api key" {
		t.Errorf("Expected message from body, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c, err := New(Config{APIKey: "k", BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = c.Search(context.Background(), 1, "q")
	if !apierr.IsKind(err, apierr.KindTimeout) {
		t.Errorf("Expected timeout kind, got %v", err)
	}
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"search":{}}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, 1, "q")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
