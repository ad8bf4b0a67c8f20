package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludePatterns match URL paths that never lead to crawlable text:
// assets, downloads and CMS plumbing. Patterns use doublestar syntax against
// the lowercase path without leading or trailing slash.
var DefaultExcludePatterns = []string{
	// CMS and CDN plumbing
	"**/wp-admin/**", "**/wp-json/**", "**/wp-content/**", "**/cdn-cgi/**", "**/feed/**",

	// Web assets
	"**/*.{css,js,map,json,xml,rss}",

	// Images
	"**/*.{png,jpg,jpeg,gif,ico,svg,webp,bmp,tiff}",

	// Fonts
	"**/*.{woff,woff2,ttf,eot,otf}",

	// Documents and archives
	"**/*.{pdf,doc,docx,xls,xlsx,ppt,pptx}",
	"**/*.{zip,tar,gz,rar,7z}",

	// Media
	"**/*.{mp3,mp4,wav,avi,mov,mkv,webm}",
}

// LinkFilter decides which discovered links the crawler follows.
// Only links on the seed host whose path matches no exclusion pattern pass.
type LinkFilter struct {
	host     string
	patterns []string
}

// NewLinkFilter creates a filter scoped to the host of seedURL with the
// default exclusion patterns.
func NewLinkFilter(seedURL string) (*LinkFilter, error) {
	return NewLinkFilterWithPatterns(seedURL, DefaultExcludePatterns)
}

// NewLinkFilterWithPatterns creates a filter with custom doublestar exclusion
// patterns. Invalid patterns are an error.
func NewLinkFilterWithPatterns(seedURL string, patterns []string) (*LinkFilter, error) {
	u, err := url.Parse(seedURL)
	if err != nil {
		return nil, err
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
		}
	}
	return &LinkFilter{host: strings.ToLower(u.Host), patterns: patterns}, nil
}

// Allow reports whether link should be crawled.
func (f *LinkFilter) Allow(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if strings.ToLower(u.Host) != f.host {
		return false
	}
	return !f.Excluded(u.Path)
}

// Excluded reports whether urlPath matches any exclusion pattern.
// A directory path also matches the patterns of its contents, so /wp-admin/
// is excluded by "**/wp-admin/**".
func (f *LinkFilter) Excluded(urlPath string) bool {
	p := strings.Trim(strings.ToLower(urlPath), "/")
	for _, pattern := range f.patterns {
		// Patterns were validated by the constructor
		if matched, _ := doublestar.Match(pattern, p); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, p+"/"); matched {
			return true
		}
	}
	return false
}
