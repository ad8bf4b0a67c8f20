// Package extract turns fetched HTML into normalized page text and outgoing links.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// MinContentLength is the shortest normalized content kept as a page.
const MinContentLength = 50

// ErrThinContent indicates the page has too little text to be useful.
var ErrThinContent = errors.New("page content too thin")

// Result is the extracted text of a page.
type Result struct {
	Title   string
	Content string
}

// Document is a parsed HTML page.
type Document struct {
	doc     *goquery.Document
	pageURL *url.URL
}

// Parse reads an HTML document fetched from pageURL.
// Script and style elements are dropped while parsing.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style").Remove()

	return &Document{doc: doc, pageURL: u}, nil
}

// Extract parses raw HTML and returns its title and normalized text.
// It returns ErrThinContent when the text is shorter than MinContentLength.
func Extract(raw []byte, pageURL string) (*Result, error) {
	d, err := Parse(bytes.NewReader(raw), pageURL)
	if err != nil {
		return nil, err
	}
	return d.Extract()
}

// Extract returns the title and normalized text of the document.
// It returns ErrThinContent when the text is shorter than MinContentLength.
func (d *Document) Extract() (*Result, error) {
	content := d.Content()
	if n := utf8.RuneCountInString(content); n < MinContentLength {
		return nil, fmt.Errorf("%w: %d characters", ErrThinContent, n)
	}
	return &Result{Title: d.Title(), Content: content}, nil
}

// Title returns the text of the first h1, the document title, or the URL host,
// whichever is found first and non-empty.
func (d *Document) Title() string {
	if title := strippedText(d.doc.Find("h1").First()); title != "" {
		return title
	}
	if title := strippedText(d.doc.Find("title").First()); title != "" {
		return title
	}
	return d.pageURL.Host
}

// Content returns all remaining document text, normalized by Normalize.
func (d *Document) Content() string {
	return Normalize(d.doc.Text())
}

// Normalize trims every line, splits lines on double spaces and joins the
// non-empty fragments with single newlines. Line breaks are \n, \r, \v, \f,
// the file/group/record separators, NEL and the Unicode line and paragraph
// separators. Trimmed whitespace also includes the unit separator.
func Normalize(text string) string {
	var fragments []string
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		for _, phrase := range strings.Split(trimSpace(line), "  ") {
			if phrase = trimSpace(phrase); phrase != "" {
				fragments = append(fragments, phrase)
			}
		}
	}
	return strings.Join(fragments, "\n")
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

func trimSpace(s string) string {
	return strings.TrimFunc(s, isSpace)
}

// strippedText concatenates the trimmed text nodes under the selection.
func strippedText(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		appendStripped(&sb, n)
	}
	return sb.String()
}

func appendStripped(sb *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		sb.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendStripped(sb, c)
	}
}
