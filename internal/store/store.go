// Package store persists scraped pages, sections and paragraphs as JSON files.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sha1n/siterag/internal/domain"
)

// Layout of a content directory.
const (
	PagesDir         = "pages"
	SectionsDir      = "sections"
	ParagraphsDir    = "paragraphs"
	IndexFilename    = "index.json"
	ExportFilename   = "complete_export.json"
	ManifestFilename = "manifest.json"
	LockFilename     = ".scrape.lock"
	LocalIndexDir    = "paragraphs.bleve"
)

var (
	// ErrNoIndex indicates the directory has not been scraped yet
	ErrNoIndex = errors.New("no scraped index found")

	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidID indicates a malformed record identifier
	ErrInvalidID = errors.New("invalid record id")

	idPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)
)

// Store reads and writes one content directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir. Nothing is created on disk until Save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// IndexPath returns the path of the Index file.
func (s *Store) IndexPath() string {
	return filepath.Join(s.dir, IndexFilename)
}

// ExportPath returns the path of the combined export file.
func (s *Store) ExportPath() string {
	return filepath.Join(s.dir, ExportFilename)
}

// ManifestPath returns the path of the manifest file.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.dir, ManifestFilename)
}

// LocalIndexPath returns the path of the local full-text index.
func (s *Store) LocalIndexPath() string {
	return filepath.Join(s.dir, LocalIndexDir)
}

// Lock returns the writer lock of the directory.
func (s *Store) Lock() *DirLock {
	return NewDirLock(filepath.Join(s.dir, LockFilename))
}

// Save writes every record of export to its own file, then the Index and the
// export itself. Files of records with the same id are overwritten; nothing
// else is removed. It returns the Index that was written.
func (s *Store) Save(export domain.Export) (domain.Index, error) {
	index := domain.NewIndex(export.Metadata.BaseURL, export.Pages, export.Sections, export.Paragraphs)

	for _, dir := range []string{s.dir, s.recordDir(PagesDir), s.recordDir(SectionsDir), s.recordDir(ParagraphsDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return index, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	for _, p := range export.Pages {
		if err := WriteJSON(s.recordPath(PagesDir, p.ID), p); err != nil {
			return index, err
		}
	}
	for _, sec := range export.Sections {
		if err := WriteJSON(s.recordPath(SectionsDir, sec.ID), sec); err != nil {
			return index, err
		}
	}
	for _, p := range export.Paragraphs {
		if err := WriteJSON(s.recordPath(ParagraphsDir, p.ID), p); err != nil {
			return index, err
		}
	}

	if err := WriteJSON(s.IndexPath(), index); err != nil {
		return index, err
	}
	if err := WriteJSON(s.ExportPath(), export); err != nil {
		return index, err
	}
	return index, nil
}

// HasIndex reports whether an Index file exists.
func (s *Store) HasIndex() bool {
	_, err := os.Stat(s.IndexPath())
	return err == nil
}

// LoadIndex reads the Index. It returns ErrNoIndex if the directory was never scraped.
func (s *Store) LoadIndex() (*domain.Index, error) {
	var index domain.Index
	if err := readJSON(s.IndexPath(), &index); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoIndex
		}
		return nil, err
	}
	return &index, nil
}

// LoadExport reads the combined export. It returns ErrNoIndex if it does not exist.
func (s *Store) LoadExport() (*domain.Export, error) {
	var export domain.Export
	if err := readJSON(s.ExportPath(), &export); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoIndex
		}
		return nil, err
	}
	return &export, nil
}

// LoadPage reads one page record.
func (s *Store) LoadPage(id string) (*domain.Page, error) {
	var page domain.Page
	if err := s.loadRecord(PagesDir, id, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// LoadSection reads one section record.
func (s *Store) LoadSection(id string) (*domain.Section, error) {
	var section domain.Section
	if err := s.loadRecord(SectionsDir, id, &section); err != nil {
		return nil, err
	}
	return &section, nil
}

// LoadParagraph reads one paragraph record.
func (s *Store) LoadParagraph(id string) (*domain.Paragraph, error) {
	var paragraph domain.Paragraph
	if err := s.loadRecord(ParagraphsDir, id, &paragraph); err != nil {
		return nil, err
	}
	return &paragraph, nil
}

// ValidID reports whether id has the shape of a content-addressed identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func (s *Store) loadRecord(kind, id string, v any) error {
	if !ValidID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return readJSON(s.recordPath(kind, id), v)
}

func (s *Store) recordDir(kind string) string {
	return filepath.Join(s.dir, kind)
}

func (s *Store) recordPath(kind, id string) string {
	return filepath.Join(s.dir, kind, id+".json")
}

// WriteJSON writes v as 2-space indented UTF-8 JSON with non-ASCII and HTML
// characters kept literally. The file is replaced atomically.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filepath.Base(path), err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", tempPath, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
