package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func testCollections() ([]Page, []Section, []Paragraph) {
	pages := []Page{
		{ID: "p1", Title: "Home", URL: "https://x/", Content: "c", CharacterCount: 1},
	}
	sections := []Section{
		{ID: "s1", PageID: "p1", Title: "Intro", URL: "https://x/", ParagraphCount: 2},
	}
	paragraphs := []Paragraph{
		{ID: "a1", SectionID: "s1", PageID: "p1", Content: strings.Repeat("a", 25), CharacterCount: 25, URL: "https://x/"},
		{ID: "a2", SectionID: "s1", PageID: "p1", Content: strings.Repeat("b", 30), CharacterCount: 30, URL: "https://x/"},
	}
	return pages, sections, paragraphs
}

func TestNewIndex(t *testing.T) {
	pages, sections, paragraphs := testCollections()

	idx := NewIndex("https://x/", pages, sections, paragraphs)

	if idx.BaseURL != "https://x/" {
		t.Errorf("BaseURL = %q, want %q", idx.BaseURL, "https://x/")
	}
	if idx.TotalPages != 1 || idx.TotalSections != 1 || idx.TotalParagraphs != 2 {
		t.Errorf("Unexpected totals: %d/%d/%d", idx.TotalPages, idx.TotalSections, idx.TotalParagraphs)
	}
	if idx.Pages[0] != (IndexPage{ID: "p1", Title: "Home", URL: "https://x/"}) {
		t.Errorf("Unexpected page entry: %+v", idx.Pages[0])
	}
	if idx.Sections[0] != (IndexSection{ID: "s1", Title: "Intro", PageID: "p1"}) {
		t.Errorf("Unexpected section entry: %+v", idx.Sections[0])
	}
	if idx.Paragraphs[1].CharacterCount != 30 {
		t.Errorf("CharacterCount = %d, want 30", idx.Paragraphs[1].CharacterCount)
	}
	if idx.TotalCharacters() != 55 {
		t.Errorf("TotalCharacters = %d, want 55", idx.TotalCharacters())
	}
}

func TestNewIndex_EmptyCollectionsSerializeAsArrays(t *testing.T) {
	idx := NewIndex("https://x/", nil, nil, nil)

	data, err := json.Marshal(idx)
	if err != nil {
		t.Fatalf("Failed to marshal index: %v", err)
	}

	for _, want := range []string{`"pages":[]`, `"sections":[]`, `"paragraphs":[]`, `"total_pages":0`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Expected %s in %s", want, data)
		}
	}
}

func TestNewExport(t *testing.T) {
	pages, sections, paragraphs := testCollections()

	export := NewExport("https://x/", pages, sections, paragraphs)

	if export.Metadata.TotalParagraphs != 2 {
		t.Errorf("TotalParagraphs = %d, want 2", export.Metadata.TotalParagraphs)
	}
	if len(export.Pages) != 1 || export.Pages[0].Content != "c" {
		t.Errorf("Expected full page records in export, got %+v", export.Pages)
	}

	empty := NewExport("https://x/", nil, nil, nil)
	data, err := json.Marshal(empty)
	if err != nil {
		t.Fatalf("Failed to marshal export: %v", err)
	}
	if !strings.Contains(string(data), `"metadata":{"base_url":"https://x/"`) {
		t.Errorf("Unexpected export JSON: %s", data)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("Expected no null collections, got %s", data)
	}
}

func TestParagraph_JSONFieldNames(t *testing.T) {
	_, _, paragraphs := testCollections()

	data, err := json.Marshal(paragraphs[0])
	if err != nil {
		t.Fatalf("Failed to marshal paragraph: %v", err)
	}

	for _, key := range []string{"id", "section_id", "page_id", "content", "character_count", "url"} {
		if !strings.Contains(string(data), `"`+key+`":`) {
			t.Errorf("Expected key %q in %s", key, data)
		}
	}
}
