// Package localindex maintains a Bleve full-text index over scraped paragraphs.
package localindex

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/sha1n/siterag/internal/domain"
)

const (
	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100

	// DefaultSearchSize is the number of hits returned when no size is given
	DefaultSearchSize = 10
)

// ErrNoLocalIndex indicates that no index has been built at the path.
var ErrNoLocalIndex = errors.New("local index does not exist")

// CreateIndexMapping creates the Bleve index mapping for paragraph documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Content - analyzed for full-text search, with term vectors for highlighting
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.FieldContent, contentField)

	// Titles - analyzed so that headings contribute to ranking
	for _, name := range []string{domain.FieldPageTitle, domain.FieldSectionTitle} {
		titleField := bleve.NewTextFieldMapping()
		titleField.Analyzer = standard.Name
		titleField.Store = true
		docMapping.AddFieldMappingsAt(name, titleField)
	}

	// Identifiers and URL - keyword, stored for filtering and display
	for _, name := range []string{domain.FieldPageID, domain.FieldSectionID, domain.FieldURL} {
		keywordField := bleve.NewTextFieldMapping()
		keywordField.Analyzer = keyword.Name
		keywordField.Store = true
		docMapping.AddFieldMappingsAt(name, keywordField)
	}

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.FieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// Documents denormalizes the paragraphs of an export with their page and
// section titles.
func Documents(export domain.Export) []domain.ParagraphDocument {
	pageTitles := make(map[string]string, len(export.Pages))
	for _, p := range export.Pages {
		pageTitles[p.ID] = p.Title
	}
	sectionTitles := make(map[string]string, len(export.Sections))
	for _, s := range export.Sections {
		sectionTitles[s.ID] = s.Title
	}

	docs := make([]domain.ParagraphDocument, 0, len(export.Paragraphs))
	for _, p := range export.Paragraphs {
		docs = append(docs, domain.ParagraphDocument{
			ID:           p.ID,
			PageID:       p.PageID,
			SectionID:    p.SectionID,
			URL:          p.URL,
			PageTitle:    pageTitles[p.PageID],
			SectionTitle: sectionTitles[p.SectionID],
			Content:      p.Content,
		})
	}
	return docs
}

// Build replaces the index at path with one holding every paragraph of export.
// Returns the number of documents indexed.
func Build(path string, export domain.Export) (count int, err error) {
	if err := os.RemoveAll(path); err != nil {
		return 0, fmt.Errorf("failed to remove old index: %w", err)
	}

	index, err := bleve.New(path, CreateIndexMapping())
	if err != nil {
		return 0, fmt.Errorf("failed to create index: %w", err)
	}
	defer func() {
		if cerr := index.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	batch := index.NewBatch()
	for _, doc := range Documents(export) {
		if err := batch.Index(doc.ID, doc); err != nil {
			return count, fmt.Errorf("failed to index paragraph %s: %w", doc.ID, err)
		}
		if batch.Size() >= MaxBatchSize {
			if err := index.Batch(batch); err != nil {
				return count, fmt.Errorf("batch index failed: %w", err)
			}
			count += batch.Size()
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return count, fmt.Errorf("final batch index failed: %w", err)
		}
		count += batch.Size()
	}

	return count, nil
}

// Exists reports whether an index has been built at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Index is an open local index. It is safe for concurrent searches.
type Index struct {
	index bleve.Index
}

// Open opens the index at path.
func Open(path string) (*Index, error) {
	if !Exists(path) {
		return nil, ErrNoLocalIndex
	}
	index, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return &Index{index: index}, nil
}

// Hit is one matching paragraph.
type Hit struct {
	ID           string
	PageID       string
	SectionID    string
	URL          string
	PageTitle    string
	SectionTitle string
	Score        float64
	// Fragments are highlighted excerpts of the paragraph content.
	Fragments []string
}

// Result is a page of hits.
type Result struct {
	Total uint64
	Hits  []Hit
}

// Search runs a full-text query over paragraph content and titles. When
// pageID is set, only paragraphs of that page match.
func (i *Index) Search(text, pageID string, size int) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("query cannot be empty")
	}
	if size <= 0 {
		size = DefaultSearchSize
	}

	req := bleve.NewSearchRequest(buildQuery(text, pageID))
	req.Size = size
	req.Fields = []string{
		domain.FieldPageID, domain.FieldSectionID, domain.FieldURL,
		domain.FieldPageTitle, domain.FieldSectionTitle,
	}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.FieldContent)

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := &Result{Total: res.Total, Hits: make([]Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, Hit{
			ID:           h.ID,
			PageID:       stringField(h.Fields, domain.FieldPageID),
			SectionID:    stringField(h.Fields, domain.FieldSectionID),
			URL:          stringField(h.Fields, domain.FieldURL),
			PageTitle:    stringField(h.Fields, domain.FieldPageTitle),
			SectionTitle: stringField(h.Fields, domain.FieldSectionTitle),
			Score:        h.Score,
			Fragments:    h.Fragments[domain.FieldContent],
		})
	}
	return out, nil
}

// DocCount returns the number of indexed paragraphs.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

func buildQuery(text, pageID string) query.Query {
	contentQuery := bleve.NewMatchQuery(text)
	contentQuery.SetField(domain.FieldContent)

	sectionQuery := bleve.NewMatchQuery(text)
	sectionQuery.SetField(domain.FieldSectionTitle)
	sectionQuery.SetBoost(2.0)

	pageQuery := bleve.NewMatchQuery(text)
	pageQuery.SetField(domain.FieldPageTitle)
	pageQuery.SetBoost(1.5)

	textQuery := bleve.NewDisjunctionQuery(contentQuery, sectionQuery, pageQuery)
	if pageID == "" {
		return textQuery
	}

	pageFilter := bleve.NewTermQuery(pageID)
	pageFilter.SetField(domain.FieldPageID)
	return bleve.NewConjunctionQuery(textQuery, pageFilter)
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
