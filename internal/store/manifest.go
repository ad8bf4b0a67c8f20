package store

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ManifestVersion is the current schema version
const ManifestVersion = 1

// Manifest records when the content directory was last scraped and when the
// local full-text index was last rebuilt from it.
type Manifest struct {
	Version     int       `json:"version"`
	BaseURL     string    `json:"base_url"`
	ScrapedAt   time.Time `json:"scraped_at"`
	Pages       int       `json:"pages"`
	Sections    int       `json:"sections"`
	Paragraphs  int       `json:"paragraphs"`
	Failures    int       `json:"failures"`
	IndexedAt   time.Time `json:"indexed_at"`
	IndexedDocs int       `json:"indexed_documents"`
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Version: ManifestVersion}
}

// LoadManifest reads a manifest, returning an empty one if the file does not exist.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest atomically.
func (m *Manifest) Save(path string) error {
	if err := WriteJSON(path, m); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// RecordScrape stores the outcome of a scrape run and invalidates the local index.
func (m *Manifest) RecordScrape(baseURL string, pages, sections, paragraphs, failures int, at time.Time) {
	m.BaseURL = baseURL
	m.ScrapedAt = at
	m.Pages = pages
	m.Sections = sections
	m.Paragraphs = paragraphs
	m.Failures = failures
	m.IndexedAt = time.Time{}
	m.IndexedDocs = 0
}

// RecordIndex stores a successful local index rebuild.
func (m *Manifest) RecordIndex(docs int, at time.Time) {
	m.IndexedAt = at
	m.IndexedDocs = docs
}

// NeedsReindex reports whether the local index is older than the scraped content.
func (m *Manifest) NeedsReindex() bool {
	if m.ScrapedAt.IsZero() {
		return false
	}
	return m.IndexedAt.IsZero() || m.IndexedAt.Before(m.ScrapedAt)
}
