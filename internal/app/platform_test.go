package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sha1n/siterag/internal/config"
	"github.com/sha1n/siterag/internal/crawler"
	"github.com/spf13/pflag"
)

// fakeGroundX serves canned platform responses and records crawl requests.
type fakeGroundX struct {
	statuses []string
	checks   atomic.Int32
	crawled  []map[string]any
}

func (f *fakeGroundX) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/ingest/documents/website", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Websites []map[string]any `json:"websites"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode crawl request: %v", err)
		}
		f.crawled = append(f.crawled, req.Websites...)
		_, _ = w.Write([]byte(`{"ingest":{"processId":"proc-1","status":"queued"}}`))
	})
	mux.HandleFunc("GET /v1/ingest/proc-1", func(w http.ResponseWriter, r *http.Request) {
		n := int(f.checks.Add(1)) - 1
		status := f.statuses[min(n, len(f.statuses)-1)]
		_, _ = w.Write([]byte(`{"ingest":{"processId":"proc-1","status":"` + status + `","progress":{"complete":{"total":4}}}}`))
	})
	mux.HandleFunc("POST /v1/search/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"search":{"count":1,"score":80,"text":"ITNB operates sovereign cloud data centers in Switzerland.",
			"results":[{"score":80,"sourceUrl":"https://site.test/about","text":"ITNB operates sovereign cloud data centers."}]}}`))
	})
	return mux
}

func platformParams(t *testing.T, fake *fakeGroundX, stdout *bytes.Buffer) (RunParams, *config.Settings) {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	settings := testSettings(t)
	settings.GroundX.BaseURL = server.URL
	settings.GroundX.Timeout = 5 * time.Second
	settings.Ingest.SourceURL = "https://site.test/"
	settings.Ingest.PollInterval = time.Millisecond
	settings.Ingest.MaxAttempts = 5
	return testParams(settings, stdout), settings
}

func TestRunIngest_Website(t *testing.T) {
	fake := &fakeGroundX{}
	var stdout bytes.Buffer
	params, _ := platformParams(t, fake, &stdout)

	if err := RunIngest(context.Background(), params, nil); err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	if len(fake.crawled) != 1 {
		t.Fatalf("crawl requests = %d, want 1", len(fake.crawled))
	}
	if got := fake.crawled[0]["sourceUrl"]; got != "https://site.test/" {
		t.Errorf("sourceUrl = %v, want https://site.test/", got)
	}

	output := stdout.String()
	for _, want := range []string{"Using website crawl ingestion", "Process ID: proc-1", "siterag status proc-1 --continuous"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunIngest_Hierarchical(t *testing.T) {
	fake := &fakeGroundX{}
	var stdout bytes.Buffer
	params, settings := platformParams(t, fake, &stdout)

	scrape := params
	scrape.NewFetcher = func(*config.Settings) crawler.Fetcher { return testSite() }
	settings.Crawl.BaseURL = "https://site.test/"
	if err := RunScrape(context.Background(), scrape, nil); err != nil {
		t.Fatalf("RunScrape failed: %v", err)
	}
	stdout.Reset()

	if err := RunIngest(context.Background(), params, nil); err != nil {
		t.Fatalf("RunIngest failed: %v", err)
	}

	searchData, _ := fake.crawled[0]["searchData"].(map[string]any)
	if searchData["organization_level"] != "hierarchical" {
		t.Errorf("Expected hierarchical search data, got %v", searchData)
	}
	if !strings.Contains(stdout.String(), "Found hierarchical content") {
		t.Errorf("Expected hierarchical notice, got:\n%s", stdout.String())
	}
}

func TestRunIngest_PlatformError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid api key"}`))
	}))
	defer server.Close()

	var stdout bytes.Buffer
	settings := testSettings(t)
	settings.GroundX.BaseURL = server.URL
	params := testParams(settings, &stdout)

	if err := RunIngest(context.Background(), params, nil); err == nil {
		t.Fatal("Expected error for rejected ingestion")
	}
	if !strings.Contains(stdout.String(), "ERROR: ") {
		t.Errorf("Expected error on the console, got:\n%s", stdout.String())
	}
}

func TestRunStatus_SingleCheck(t *testing.T) {
	fake := &fakeGroundX{statuses: []string{"training"}}
	var stdout bytes.Buffer
	params, _ := platformParams(t, fake, &stdout)

	if err := RunStatus(context.Background(), params, nil, " proc-1 "); err != nil {
		t.Fatalf("RunStatus failed: %v", err)
	}

	if n := fake.checks.Load(); n != 1 {
		t.Errorf("checks = %d, want 1", n)
	}
	output := stdout.String()
	if !strings.Contains(output, "Status: TRAINING") || !strings.Contains(output, "Processing in progress") {
		t.Errorf("Unexpected status output:\n%s", output)
	}
}

func TestRunStatus_Continuous(t *testing.T) {
	fake := &fakeGroundX{statuses: []string{"queued", "training", "complete"}}
	var stdout bytes.Buffer
	params, _ := platformParams(t, fake, &stdout)

	flags := pflag.NewFlagSet("status", pflag.ContinueOnError)
	RegisterStatusFlags(flags)
	if err := flags.Parse([]string{"--continuous"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}

	if err := RunStatus(context.Background(), params, flags, "proc-1"); err != nil {
		t.Fatalf("RunStatus failed: %v", err)
	}

	if n := fake.checks.Load(); n != 3 {
		t.Errorf("checks = %d, want 3", n)
	}
	output := stdout.String()
	for _, want := range []string{"Monitoring ingestion process: proc-1", "Check 3/5...", "Ingestion completed successfully!"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunStatus_EmptyProcessID(t *testing.T) {
	params := testParams(testSettings(t), &bytes.Buffer{})
	if err := RunStatus(context.Background(), params, nil, "  "); err == nil {
		t.Error("Expected error for empty process ID")
	}
}

func TestRunChat(t *testing.T) {
	fake := &fakeGroundX{}
	var stdout bytes.Buffer
	params, _ := platformParams(t, fake, &stdout)
	params.Stdin = strings.NewReader("\nWhere are the data centers?\nexit\n")

	if err := RunChat(context.Background(), params, nil); err != nil {
		t.Fatalf("RunChat failed: %v", err)
	}

	output := stdout.String()
	for _, want := range []string{
		"Please enter a valid question.",
		"Processing query 1...",
		"Results Found: 1",
		"ITNB operates sovereign cloud data centers in Switzerland.",
		"Source: https://site.test/about",
		"Questions asked: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRunChat_EndOfInput(t *testing.T) {
	fake := &fakeGroundX{}
	var stdout bytes.Buffer
	params, _ := platformParams(t, fake, &stdout)
	params.Stdin = strings.NewReader("")

	if err := RunChat(context.Background(), params, nil); err != nil {
		t.Fatalf("RunChat failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Questions asked: 0") {
		t.Errorf("Expected no questions, got:\n%s", stdout.String())
	}
}
