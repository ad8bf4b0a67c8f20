package extract

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExtract_HeadingAndParagraphs(t *testing.T) {
	a := strings.Repeat("A", 60)
	b := strings.Repeat("B", 60)
	raw := "<h1>Title</h1><p>" + a + "</p><p>" + b + "</p>"

	res, err := Extract([]byte(raw), "https://x/")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if res.Title != "Title" {
		t.Errorf("Title = %q, want %q", res.Title, "Title")
	}
	if res.Content != "Title"+a+b {
		t.Errorf("Content = %q, want flattened text", res.Content)
	}
}

func TestExtract_RemovesScriptAndStyle(t *testing.T) {
	raw := `<html><head><style>body { color: red; }</style></head><body>
<script>var secret = "do not index";</script>
<p>Visible text that is definitely long enough to be kept around.</p>
</body></html>`

	res, err := Extract([]byte(raw), "https://x/")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if strings.Contains(res.Content, "secret") || strings.Contains(res.Content, "color") {
		t.Errorf("Expected script and style to be removed, got %q", res.Content)
	}
	if !strings.Contains(res.Content, "Visible text") {
		t.Errorf("Expected visible text, got %q", res.Content)
	}
}

func TestExtract_TitleFallbacks(t *testing.T) {
	body := "<p>" + strings.Repeat("content ", 10) + "</p>"

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"first h1 wins", "<title>Doc</title><h1>First</h1><h1>Second</h1>" + body, "First"},
		{"h1 text nodes stripped and joined", "<h1> Hello <b> World </b></h1>" + body, "HelloWorld"},
		{"title element", "<html><head><title> Doc Title </title></head><body>" + body + "</body></html>", "Doc Title"},
		{"empty h1 falls back", "<title>Doc</title><h1>  </h1>" + body, "Doc"},
		{"url host", body, "www.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Extract([]byte(tt.raw), "https://www.example.com/en/about")
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if res.Title != tt.want {
				t.Errorf("Title = %q, want %q", res.Title, tt.want)
			}
		})
	}
}

func TestExtract_ThinContentBoundary(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		wantThin bool
	}{
		{"49 chars rejected", 49, true},
		{"50 chars kept", 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "<p>" + strings.Repeat("a", tt.length) + "</p>"
			res, err := Extract([]byte(raw), "https://x/")
			if tt.wantThin {
				if !errors.Is(err, ErrThinContent) {
					t.Errorf("Expected ErrThinContent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if len(res.Content) != tt.length {
				t.Errorf("Content length = %d, want %d", len(res.Content), tt.length)
			}
		})
	}
}

func TestExtract_InvalidURL(t *testing.T) {
	_, err := Extract([]byte("<p>x</p>"), "://bad")
	if err == nil {
		t.Error("Expected error for invalid page URL")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"blank lines collapsed", "a\n\n\n  b  \n", "a\nb"},
		{"double spaces split", "Hello   world  again", "Hello\nworld\nagain"},
		{"single spaces kept", "one two three", "one two three"},
		{"carriage returns", "x\r\ny\rz", "x\ny\nz"},
		{"tabs trimmed", "\tindented\t", "indented"},
		{"empty", "   \n  ", ""},
		{"form feed and NEL break lines", "\u00e9\fa\u0085b", "\u00e9\na\nb"},
		{"vertical tab breaks lines", "one\vtwo", "one\ntwo"},
		{"separators break lines", "a\x1cb\x1dc\x1ed", "a\nb\nc\nd"},
		{"unicode line separators", "first\u2028second\u2029third", "first\nsecond\nthird"},
		{"unit separator trimmed", "\x1fword\x1f", "word"},
		{"no-break space trimmed", "\u00a0word\u3000", "word"},
		{"no-break space inside kept", "a\u00a0b", "a\u00a0b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_NeverProducesBlankLines(t *testing.T) {
	got := Normalize("<section>\n\n\nBlock one\n\n\n\nBlock two\n\n")
	if strings.Contains(got, "\n\n") {
		t.Errorf("Expected no blank lines, got %q", got)
	}
}

func TestDocument_Links(t *testing.T) {
	raw := `<html><body>
<a href="/en/about">About</a>
<a href="services#top">Services</a>
<a href="https://www.example.com/en/about#team">About again</a>
<a href="#main">Skip</a>
<a href="mailto:info@example.com">Mail</a>
<a href="javascript:void(0)">JS</a>
<a href="https://other.org/page">Other</a>
<a href="  ">Blank</a>
<a>No href</a>
</body></html>`

	d, err := Parse(strings.NewReader(raw), "https://www.example.com/en/")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{
		"https://www.example.com/en/about",
		"https://www.example.com/en/services",
		"https://other.org/page",
	}
	if got := d.Links(); !reflect.DeepEqual(got, want) {
		t.Errorf("Links = %v, want %v", got, want)
	}
}
