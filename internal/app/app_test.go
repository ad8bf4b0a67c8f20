package app

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/sha1n/siterag/internal/config"
	"github.com/sha1n/siterag/internal/crawler"
	"github.com/spf13/pflag"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// noopValidate is a no-op validation function for tests
func noopValidate(*config.Settings, string) error {
	return nil
}

// testSettings returns defaults pointing at a fresh output directory.
func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	settings, err := config.LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	settings.OutputDir = t.TempDir()
	settings.LogLevel = "error"
	settings.MetricsFile = ""
	settings.GroundX.APIKey = "gx-test"
	settings.GroundX.BucketID = 42
	settings.LLM.APIKey = ""
	settings.Crawl.RequestsPerSecond = 0
	return settings
}

// testParams runs commands against settings, capturing the console output.
func testParams(settings *config.Settings, stdout *bytes.Buffer) RunParams {
	return RunParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return settings, nil
		},
		ValidSettings: config.ValidateSettings,
		Now:           func() time.Time { return fixedNow },
		Stdout:        stdout,
		Stderr:        io.Discard,
	}
}

// mapFetcher serves canned HTML by URL
type mapFetcher map[string]string

func (f mapFetcher) Fetch(ctx context.Context, url string) (*crawler.Page, error) {
	body, ok := f[url]
	if !ok {
		return nil, &crawler.StatusError{URL: url, StatusCode: 404}
	}
	return &crawler.Page{URL: url, Body: []byte(body)}, nil
}
