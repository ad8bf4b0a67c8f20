package segment

import (
	"reflect"
	"strings"
	"testing"
)

const testURL = "https://x/"

func TestID_KnownValues(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "d41d8cd98f00"},
		{"https://x/", "37a9eb50327b"},
		{"https://www.itnb.ch/en", "2f97297a5dfe"},
	}

	for _, tt := range tests {
		if got := ID(tt.input); got != tt.want {
			t.Errorf("ID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIDHelpers(t *testing.T) {
	if got := PageID(testURL); got != "37a9eb50327b" {
		t.Errorf("PageID = %q, want %q", got, "37a9eb50327b")
	}
	if got := SectionID(testURL, 1, "Intro"); got != "c245db48b249" {
		t.Errorf("SectionID = %q, want %q", got, "c245db48b249")
	}
	if got := ParagraphID(testURL, 1); got != "edd8f6d865f1" {
		t.Errorf("ParagraphID = %q, want %q", got, "edd8f6d865f1")
	}
}

func TestSegment_PageLengthGate(t *testing.T) {
	tests := []struct {
		name         string
		length       int
		wantSections int
	}{
		{"99 chars skipped", 99, 0},
		{"100 chars segmented", 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Segment(testURL, "p", strings.Repeat("a", tt.length))
			if len(res.Sections) != tt.wantSections {
				t.Errorf("Sections = %d, want %d", len(res.Sections), tt.wantSections)
			}
		})
	}
}

func TestSegment_SectionLengthGate(t *testing.T) {
	filler := strings.Repeat("f", 60)

	tests := []struct {
		name         string
		length       int
		wantSections int
	}{
		{"29 chars discarded", 29, 1},
		{"30 chars kept", 30, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Repeat("s", tt.length) + "\n\n" + filler
			res := Segment(testURL, "p", content+"\n\n"+strings.Repeat("g", 40))
			// the trailing 40-char section is always kept
			if len(res.Sections) != tt.wantSections+1 {
				t.Errorf("Sections = %d, want %d", len(res.Sections), tt.wantSections+1)
			}
		})
	}
}

func TestSegment_ParagraphLengthGate(t *testing.T) {
	long := strings.Repeat("L", 80)

	tests := []struct {
		name           string
		line           string
		wantParagraphs int
	}{
		{"20 chars discarded", strings.Repeat("a", 20), 1},
		{"21 chars admitted", strings.Repeat("a", 21), 2},
		{"padded 20 chars discarded", "   " + strings.Repeat("a", 20) + "   ", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Segment(testURL, "p", long+"\n"+tt.line+"\n"+long[:30])
			if len(res.Paragraphs) != tt.wantParagraphs+1 {
				t.Errorf("Paragraphs = %d, want %d", len(res.Paragraphs), tt.wantParagraphs+1)
			}
			for _, p := range res.Paragraphs {
				if len([]rune(p.Content)) <= MinParagraphLength {
					t.Errorf("Admitted short paragraph %q", p.Content)
				}
				if p.CharacterCount != len([]rune(p.Content)) {
					t.Errorf("CharacterCount = %d, want %d", p.CharacterCount, len([]rune(p.Content)))
				}
			}
		})
	}
}

func TestSegment_SingleParagraphWithoutBoundaries(t *testing.T) {
	content := strings.Repeat("w", 150)

	res := Segment(testURL, "p", content)

	if len(res.Sections) != 1 || len(res.Paragraphs) != 1 {
		t.Fatalf("Expected 1 section and 1 paragraph, got %d and %d", len(res.Sections), len(res.Paragraphs))
	}
	if res.Paragraphs[0].Content != content {
		t.Error("Expected paragraph to equal the whole section")
	}
	if res.Sections[0].Title != strings.Repeat("w", 50) {
		t.Errorf("Title = %q, want 50 chars", res.Sections[0].Title)
	}
	if res.Sections[0].ID != SectionID(testURL, 1, res.Sections[0].Title) {
		t.Errorf("Unexpected section ID %q", res.Sections[0].ID)
	}
	if res.Paragraphs[0].ID != ParagraphID(testURL, 1) {
		t.Errorf("Unexpected paragraph ID %q", res.Paragraphs[0].ID)
	}
}

func TestSegment_SentenceGrouping(t *testing.T) {
	a := strings.Repeat("A", 150)
	b := strings.Repeat("B", 100)
	c := strings.Repeat("C", 30)

	res := Segment(testURL, "p", a+". "+b+". "+c)

	if len(res.Paragraphs) != 2 {
		t.Fatalf("Paragraphs = %d, want 2", len(res.Paragraphs))
	}
	if res.Paragraphs[0].Content != a {
		t.Errorf("First paragraph = %q, want the first sentence", res.Paragraphs[0].Content)
	}
	if res.Paragraphs[1].Content != b+". "+c {
		t.Errorf("Second paragraph = %q, want joined sentences", res.Paragraphs[1].Content)
	}
	if res.Sections[0].ParagraphCount != 2 {
		t.Errorf("ParagraphCount = %d, want 2", res.Sections[0].ParagraphCount)
	}
}

func TestSegment_EmptySectionConsumesOrdinal(t *testing.T) {
	// 40 chars of short lines, none long enough to be a paragraph
	shortLines := "aaaaaaaaa\nbbbbbbbbb\nccccccccc\nddddddddd"
	kept := strings.Repeat("k", 70)

	res := Segment(testURL, "p", shortLines+"\n\n"+kept)

	if len(res.Sections) != 1 {
		t.Fatalf("Sections = %d, want 1", len(res.Sections))
	}
	title := kept[:50]
	if res.Sections[0].ID != SectionID(testURL, 2, title) {
		t.Errorf("Expected kept section to use ordinal 2, got ID %q", res.Sections[0].ID)
	}
	if res.Paragraphs[0].ID != ParagraphID(testURL, 1) {
		t.Errorf("Expected paragraph ordinal 1, got ID %q", res.Paragraphs[0].ID)
	}
}

func TestSegment_ParagraphOrdinalIsPageGlobal(t *testing.T) {
	first := strings.Repeat("x", 40) + "\n" + strings.Repeat("y", 40)
	second := strings.Repeat("z", 40)

	res := Segment(testURL, "p", first+"\n\n"+second)

	if len(res.Paragraphs) != 3 {
		t.Fatalf("Paragraphs = %d, want 3", len(res.Paragraphs))
	}
	for i, p := range res.Paragraphs {
		if p.ID != ParagraphID(testURL, i+1) {
			t.Errorf("Paragraph %d ID = %q, want ordinal %d", i, p.ID, i+1)
		}
	}
	if res.Paragraphs[2].SectionID != res.Sections[1].ID {
		t.Error("Expected third paragraph to belong to the second section")
	}
}

func TestSegment_SectionInvariant(t *testing.T) {
	content := strings.Join([]string{
		"Welcome to our company. " + strings.Repeat("We build things. ", 20),
		"Services\nCybersecurity consulting for enterprises\nshort\nAI platforms and sovereign cloud offerings",
		"tiny",
		"Contact\nReach us at the main office in Zurich any weekday",
	}, "\n\n")

	res := Segment(testURL, "page", content)

	counts := make(map[string]int)
	for _, p := range res.Paragraphs {
		counts[p.SectionID]++
		if p.PageID != "page" || p.URL != testURL {
			t.Errorf("Unexpected paragraph references: %+v", p)
		}
	}
	for _, s := range res.Sections {
		if s.ParagraphCount < 1 {
			t.Errorf("Section %q has ParagraphCount %d", s.Title, s.ParagraphCount)
		}
		if counts[s.ID] != s.ParagraphCount {
			t.Errorf("Section %q ParagraphCount = %d, paragraphs = %d", s.Title, s.ParagraphCount, counts[s.ID])
		}
	}
	if len(counts) != len(res.Sections) {
		t.Errorf("Paragraphs reference %d sections, want %d", len(counts), len(res.Sections))
	}
}

func TestSegment_Deterministic(t *testing.T) {
	content := "Über uns. " + strings.Repeat("Wir schützen Daten und Systeme. ", 12) + "\n\nKontakt\nSchreiben Sie uns jederzeit eine Nachricht"

	first := Segment(testURL, "p", content)
	second := Segment(testURL, "p", content)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical output for identical input")
	}
	if len(first.Paragraphs) == 0 {
		t.Error("Expected paragraphs")
	}
}

func TestSegment_TitleTruncationIsRuneSafe(t *testing.T) {
	content := strings.Repeat("ü", 120)

	res := Segment(testURL, "p", content)

	if len(res.Sections) != 1 {
		t.Fatalf("Sections = %d, want 1", len(res.Sections))
	}
	if res.Sections[0].Title != strings.Repeat("ü", 50) {
		t.Errorf("Title = %q, want 50 runes", res.Sections[0].Title)
	}
	if res.Paragraphs[0].CharacterCount != 120 {
		t.Errorf("CharacterCount = %d, want 120", res.Paragraphs[0].CharacterCount)
	}
}
