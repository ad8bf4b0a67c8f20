package crawler

import (
	"errors"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com", "https://example.com/"},
		{"HTTPS://Example.COM#top", "https://example.com/"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com:443/a", "https://example.com/a"},
		{"https://example.com:8443/a", "https://example.com:8443/a"},
		{"https://example.com/en?x=1#y", "https://example.com/en?x=1"},
		{"  https://example.com/en/  ", "https://example.com/en/"},
		{"http://[::1]:8080/", "http://[::1]:8080/"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "/relative", "mailto:a@example.com", "ftp://example.com/", "https://", "://bad"} {
		if _, err := NormalizeURL(in); !errors.Is(err, ErrInvalidURL) {
			t.Errorf("NormalizeURL(%q) error = %v, want ErrInvalidURL", in, err)
		}
	}
}
