package domain

// Page is the cleaned text of one fetched document.
type Page struct {
	// ID is ID(url), see segment.ID.
	ID             string `json:"id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	Content        string `json:"content"`
	CharacterCount int    `json:"character_count"`
}

// Section groups consecutive paragraphs of a page.
// A persisted section always has ParagraphCount >= 1.
type Section struct {
	ID             string `json:"id"`
	PageID         string `json:"page_id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	ParagraphCount int    `json:"paragraph_count"`
}

// Paragraph is the smallest retrievable unit of text.
// CharacterCount always equals the rune length of Content.
type Paragraph struct {
	ID             string `json:"id"`
	SectionID      string `json:"section_id"`
	PageID         string `json:"page_id"`
	Content        string `json:"content"`
	CharacterCount int    `json:"character_count"`
	URL            string `json:"url"`
}

// IndexPage is the lightweight page entry of an Index.
type IndexPage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// IndexSection is the lightweight section entry of an Index.
type IndexSection struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	PageID string `json:"page_id"`
}

// IndexParagraph is the lightweight paragraph entry of an Index.
type IndexParagraph struct {
	ID             string `json:"id"`
	SectionID      string `json:"section_id"`
	PageID         string `json:"page_id"`
	CharacterCount int    `json:"character_count"`
}

// Index summarizes a scrape run and references the records stored separately.
type Index struct {
	BaseURL         string           `json:"base_url"`
	TotalPages      int              `json:"total_pages"`
	TotalSections   int              `json:"total_sections"`
	TotalParagraphs int              `json:"total_paragraphs"`
	Pages           []IndexPage      `json:"pages"`
	Sections        []IndexSection   `json:"sections"`
	Paragraphs      []IndexParagraph `json:"paragraphs"`
}

// ExportMetadata is the header of a complete export.
type ExportMetadata struct {
	BaseURL         string `json:"base_url"`
	TotalPages      int    `json:"total_pages"`
	TotalSections   int    `json:"total_sections"`
	TotalParagraphs int    `json:"total_paragraphs"`
}

// Export holds every record of a scrape run in one document.
type Export struct {
	Metadata   ExportMetadata `json:"metadata"`
	Pages      []Page         `json:"pages"`
	Sections   []Section      `json:"sections"`
	Paragraphs []Paragraph    `json:"paragraphs"`
}

// NewIndex builds the Index aggregate for the given collections.
// Sub-lists are never nil so they serialize as empty arrays.
func NewIndex(baseURL string, pages []Page, sections []Section, paragraphs []Paragraph) Index {
	idx := Index{
		BaseURL:         baseURL,
		TotalPages:      len(pages),
		TotalSections:   len(sections),
		TotalParagraphs: len(paragraphs),
		Pages:           make([]IndexPage, 0, len(pages)),
		Sections:        make([]IndexSection, 0, len(sections)),
		Paragraphs:      make([]IndexParagraph, 0, len(paragraphs)),
	}
	for _, p := range pages {
		idx.Pages = append(idx.Pages, IndexPage{ID: p.ID, Title: p.Title, URL: p.URL})
	}
	for _, s := range sections {
		idx.Sections = append(idx.Sections, IndexSection{ID: s.ID, Title: s.Title, PageID: s.PageID})
	}
	for _, p := range paragraphs {
		idx.Paragraphs = append(idx.Paragraphs, IndexParagraph{
			ID:             p.ID,
			SectionID:      p.SectionID,
			PageID:         p.PageID,
			CharacterCount: p.CharacterCount,
		})
	}
	return idx
}

// TotalCharacters returns the sum of all paragraph character counts.
func (idx Index) TotalCharacters() int {
	total := 0
	for _, p := range idx.Paragraphs {
		total += p.CharacterCount
	}
	return total
}

// NewExport builds the complete export for the given collections.
func NewExport(baseURL string, pages []Page, sections []Section, paragraphs []Paragraph) Export {
	if pages == nil {
		pages = []Page{}
	}
	if sections == nil {
		sections = []Section{}
	}
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	return Export{
		Metadata: ExportMetadata{
			BaseURL:         baseURL,
			TotalPages:      len(pages),
			TotalSections:   len(sections),
			TotalParagraphs: len(paragraphs),
		},
		Pages:      pages,
		Sections:   sections,
		Paragraphs: paragraphs,
	}
}

// ParagraphDocument is a paragraph as stored in the local full-text index.
// It denormalizes the titles of its page and section for display.
type ParagraphDocument struct {
	ID           string `json:"id"`
	PageID       string `json:"page_id"`
	SectionID    string `json:"section_id"`
	URL          string `json:"url"`
	PageTitle    string `json:"page_title"`
	SectionTitle string `json:"section_title"`
	Content      string `json:"content"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	FieldID           = "id"
	FieldPageID       = "page_id"
	FieldSectionID    = "section_id"
	FieldURL          = "url"
	FieldPageTitle    = "page_title"
	FieldSectionTitle = "section_title"
	FieldContent      = "content"
)
