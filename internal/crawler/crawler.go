// Package crawler walks a website from a seed URL and segments every page it visits.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sha1n/siterag/internal/domain"
	"github.com/sha1n/siterag/internal/extract"
	"github.com/sha1n/siterag/internal/segment"
	"golang.org/x/time/rate"
)

// Defaults for Config.
const (
	DefaultBaseURL  = "https://www.itnb.ch/en"
	DefaultMaxPages = 20
	DefaultMaxDepth = 2
)

// Config bounds a crawl.
type Config struct {
	BaseURL string
	// MaxPages caps the number of distinct URLs visited, failed ones included.
	MaxPages int
	// MaxDepth caps the link distance from the seed; 0 visits only the seed.
	MaxDepth int
	// RequestsPerSecond throttles fetches; 0 disables throttling.
	RequestsPerSecond float64
}

// Failure records a URL that yielded nothing.
type Failure struct {
	URL string
	Err error
}

// Result is everything collected by one crawl, in visit order.
type Result struct {
	BaseURL    string
	Visited    []string
	Pages      []domain.Page
	Sections   []domain.Section
	Paragraphs []domain.Paragraph
	Failures   []Failure
}

// Export returns the complete export of the result.
func (r *Result) Export() domain.Export {
	return domain.NewExport(r.BaseURL, r.Pages, r.Sections, r.Paragraphs)
}

// TotalCharacters returns the sum of all paragraph lengths.
func (r *Result) TotalCharacters() int {
	total := 0
	for _, p := range r.Paragraphs {
		total += p.CharacterCount
	}
	return total
}

// Observer is notified as the crawl progresses.
type Observer interface {
	// Visiting is called before the n-th distinct URL is fetched.
	Visiting(n int, url string)
	// Visited is called after a URL was fetched and segmented; page is nil for thin pages.
	Visited(url string, page *domain.Page, sections, paragraphs int)
	// Failed is called when a URL yields nothing because of an error.
	Failed(url string, err error)
}

type nopObserver struct{}

func (nopObserver) Visiting(int, string)                   {}
func (nopObserver) Visited(string, *domain.Page, int, int) {}
func (nopObserver) Failed(string, error)                   {}

// Option configures a Crawler.
type Option func(*Crawler)

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		c.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = l
	}
}

// WithLinkFilter replaces the default same-host link filter.
func WithLinkFilter(f *LinkFilter) Option {
	return func(c *Crawler) {
		c.filter = f
	}
}

// Crawler performs a sequential, depth-first traversal with an explicit stack.
// A Crawler is not safe for concurrent use.
type Crawler struct {
	cfg      Config
	seed     string
	fetcher  Fetcher
	filter   *LinkFilter
	limiter  *rate.Limiter
	observer Observer
	logger   *slog.Logger
}

// New validates cfg and creates a crawler.
func New(cfg Config, fetcher Fetcher, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher cannot be nil")
	}
	if cfg.MaxPages <= 0 {
		return nil, errors.New("max pages must be positive")
	}
	if cfg.MaxDepth < 0 {
		return nil, errors.New("max depth cannot be negative")
	}

	seed, err := NormalizeURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	filter, err := NewLinkFilter(seed)
	if err != nil {
		return nil, err
	}

	c := &Crawler{
		cfg:      cfg,
		seed:     seed,
		fetcher:  fetcher,
		filter:   filter,
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type workItem struct {
	// url is the normalized URL used for fetching and deduplication.
	url string
	// pageURL is recorded on the page and hashed into its ids. It equals url
	// except for the seed, which keeps BaseURL as configured.
	pageURL string
	depth   int
}

// Crawl visits URLs starting at the seed until the stack is empty or MaxPages
// distinct URLs were visited. Per-URL failures are recorded in the result and
// never stop the crawl. If ctx is canceled, the partial result is returned
// together with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	res := &Result{BaseURL: c.cfg.BaseURL}
	visited := make(map[string]bool)
	stack := []workItem{{url: c.seed, pageURL: strings.TrimSpace(c.cfg.BaseURL), depth: 0}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if len(visited) >= c.cfg.MaxPages {
			break
		}
		if item.depth > c.cfg.MaxDepth || visited[item.url] {
			continue
		}

		visited[item.url] = true
		res.Visited = append(res.Visited, item.pageURL)
		c.observer.Visiting(len(visited), item.pageURL)

		links, err := c.visit(ctx, item, res)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			c.logger.Warn("Failed to scrape page", "url", item.pageURL, "error", err)
			res.Failures = append(res.Failures, Failure{URL: item.pageURL, Err: err})
			c.observer.Failed(item.pageURL, err)
			continue
		}

		if item.depth == c.cfg.MaxDepth {
			continue
		}
		// reversed so that the first link in the document is visited first
		for i := len(links) - 1; i >= 0; i-- {
			if !visited[links[i]] {
				stack = append(stack, workItem{url: links[i], pageURL: links[i], depth: item.depth + 1})
			}
		}
	}

	return res, nil
}

// visit fetches, extracts and segments one URL, appending its records to res.
// It returns the crawlable links of the page.
func (c *Crawler) visit(ctx context.Context, item workItem, res *Result) ([]string, error) {
	url := item.pageURL
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	fetched, err := c.fetcher.Fetch(ctx, item.url)
	if err != nil {
		return nil, err
	}

	finalURL := fetched.URL
	if finalURL == "" {
		finalURL = item.url
	}
	doc, err := extract.Parse(bytes.NewReader(fetched.Body), finalURL)
	if err != nil {
		return nil, err
	}

	var page *domain.Page
	pageID := ""
	extracted, err := doc.Extract()
	switch {
	case err == nil:
		page = &domain.Page{
			ID:             segment.PageID(url),
			Title:          extracted.Title,
			URL:            url,
			Content:        extracted.Content,
			CharacterCount: utf8.RuneCountInString(extracted.Content),
		}
		pageID = page.ID
		res.Pages = append(res.Pages, *page)
	case errors.Is(err, extract.ErrThinContent):
		c.logger.Debug("Skipping thin page", "url", url)
	default:
		return nil, err
	}

	seg := segment.Segment(url, pageID, doc.Content())
	res.Sections = append(res.Sections, seg.Sections...)
	res.Paragraphs = append(res.Paragraphs, seg.Paragraphs...)
	c.observer.Visited(url, page, len(seg.Sections), len(seg.Paragraphs))

	var links []string
	for _, link := range doc.Links() {
		normalized, err := NormalizeURL(link)
		if err != nil || !c.filter.Allow(normalized) {
			continue
		}
		links = append(links, normalized)
	}
	return links, nil
}
