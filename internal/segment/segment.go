// Package segment decomposes normalized page text into sections and paragraphs.
package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/sha1n/siterag/internal/domain"
)

// Admission thresholds, in characters (runes).
const (
	// MinPageLength is the shortest content that is segmented at all.
	MinPageLength = 100
	// MinSectionLength is the shortest section candidate that is kept.
	MinSectionLength = 30
	// MaxGroupLength bounds greedy sentence grouping.
	MaxGroupLength = 200
	// MinParagraphLength is exclusive: a paragraph must be longer than this.
	MinParagraphLength = 20
	// MaxTitleLength truncates section titles.
	MaxTitleLength = 50
)

const (
	sectionSeparator  = "\n\n"
	sentenceSeparator = ". "
)

// Result holds the sections and paragraphs of one page in document order.
type Result struct {
	Sections   []domain.Section
	Paragraphs []domain.Paragraph
}

// Segment splits content of the page at url into sections and paragraphs.
// pageID is copied into every record and may be empty.
//
// The section ordinal advances for every candidate that passes the length gate,
// including candidates that end up with no admitted paragraph and are dropped.
// Paragraph ordinals are page-global and advance only on admission.
// Both rules are part of the identifier scheme and must not change.
func Segment(url, pageID, content string) Result {
	var res Result
	if runeLen(content) < MinPageLength {
		return res
	}

	sectionOrdinal := 0
	paragraphOrdinal := 0

	for _, sectionText := range strings.Split(content, sectionSeparator) {
		if runeLen(sectionText) < MinSectionLength {
			continue
		}

		sectionOrdinal++
		title := truncate(firstLine(sectionText), MaxTitleLength)
		section := domain.Section{
			ID:     SectionID(url, sectionOrdinal, title),
			PageID: pageID,
			Title:  title,
			URL:    url,
		}

		for _, candidate := range paragraphCandidates(sectionText) {
			text := strings.TrimSpace(candidate)
			if runeLen(text) <= MinParagraphLength {
				continue
			}
			paragraphOrdinal++
			section.ParagraphCount++
			res.Paragraphs = append(res.Paragraphs, domain.Paragraph{
				ID:             ParagraphID(url, paragraphOrdinal),
				SectionID:      section.ID,
				PageID:         pageID,
				Content:        text,
				CharacterCount: runeLen(text),
				URL:            url,
			})
		}

		if section.ParagraphCount > 0 {
			res.Sections = append(res.Sections, section)
		}
	}

	return res
}

// paragraphCandidates splits a section on newlines, or groups its sentences
// when it is a single line.
func paragraphCandidates(sectionText string) []string {
	if strings.Contains(sectionText, "\n") {
		return strings.Split(sectionText, "\n")
	}

	var candidates []string
	current := ""
	for _, part := range strings.Split(sectionText, sentenceSeparator) {
		if runeLen(current)+runeLen(part) > MaxGroupLength {
			if current != "" {
				candidates = append(candidates, strings.TrimSpace(current))
			}
			current = part
			continue
		}
		if current != "" {
			current += sentenceSeparator + part
		} else {
			current = part
		}
	}
	if current != "" {
		candidates = append(candidates, strings.TrimSpace(current))
	}
	return candidates
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func truncate(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
