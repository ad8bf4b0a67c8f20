// Package ingest submits the website to the RAG platform and follows the
// resulting ingestion process.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sha1n/siterag/internal/console"
	"github.com/sha1n/siterag/internal/domain"
	"github.com/sha1n/siterag/internal/groundx"
	"github.com/sha1n/siterag/internal/metrics"
	"github.com/sha1n/siterag/internal/store"
)

// Defaults for Config.
const (
	DefaultSourceURL   = "https://www.itnb.ch/en"
	DefaultCap         = 500
	DefaultDepth       = 5
	DefaultSourceName  = "ITNB Official Website"
	DefaultDescription = "ITNB AG - Cybersecurity and AI Innovation"
)

// Mode is the ingestion flavor.
type Mode string

const (
	// ModeHierarchical submits the crawl annotated with the local scrape summary.
	ModeHierarchical Mode = "hierarchical"
	// ModeWebsite submits a plain crawl.
	ModeWebsite Mode = "website"
)

// Config describes what the platform should crawl.
type Config struct {
	BucketID    int
	SourceURL   string
	Cap         int
	Depth       int
	SourceName  string
	Description string
}

// DefaultConfig returns the stock crawl bounds for the given bucket.
func DefaultConfig(bucketID int) Config {
	return Config{
		BucketID:    bucketID,
		SourceURL:   DefaultSourceURL,
		Cap:         DefaultCap,
		Depth:       DefaultDepth,
		SourceName:  DefaultSourceName,
		Description: DefaultDescription,
	}
}

// WebsiteCrawler submits website crawls.
type WebsiteCrawler interface {
	CrawlWebsite(ctx context.Context, websites ...groundx.WebsiteSource) (*groundx.Ingest, error)
}

// IndexLoader loads the summary of the last scrape.
type IndexLoader interface {
	LoadIndex() (*domain.Index, error)
}

// Result is an initiated ingestion.
type Result struct {
	Mode      Mode
	ProcessID string
	Status    string
	// Index is the local scrape summary, nil in ModeWebsite.
	Index *domain.Index
}

// Ingester submits ingestions.
type Ingester struct {
	client  WebsiteCrawler
	index   IndexLoader
	cfg     Config
	out     *console.Console
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures an Ingester or a StatusChecker.
type Option func(*options)

type options struct {
	out     *console.Console
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithConsole sets where progress is printed.
func WithConsole(c *console.Console) Option {
	return func(o *options) {
		o.out = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) options {
	o := options{
		out:    console.New(io.Discard),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewIngester creates an ingester. index may be nil, which always selects ModeWebsite.
func NewIngester(client WebsiteCrawler, index IndexLoader, cfg Config, opts ...Option) *Ingester {
	o := buildOptions(opts)
	return &Ingester{
		client:  client,
		index:   index,
		cfg:     cfg,
		out:     o.out,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Ingest submits a hierarchical ingestion when a local scrape index exists
// and a plain website crawl otherwise. Failures are not retried.
func (i *Ingester) Ingest(ctx context.Context) (*Result, error) {
	idx, err := i.loadIndex()
	if err != nil {
		return nil, err
	}

	mode := ModeWebsite
	if idx != nil {
		mode = ModeHierarchical
		i.out.Println("Found hierarchical content. Using optimized hierarchical ingestion...")
	} else {
		i.out.Println("Hierarchical content not found. Using website crawl ingestion...")
	}

	source := i.source(idx)
	i.printPlan(mode, idx)
	i.logger.Info("Starting GroundX ingestion", "mode", mode, "url", source.SourceURL, "bucket", source.BucketID)

	ingest, err := i.client.CrawlWebsite(ctx, source)
	if err != nil {
		i.metrics.IngestSubmitted(string(mode), "error")
		return nil, fmt.Errorf("failed to initiate %s ingestion: %w", mode, err)
	}
	i.metrics.IngestSubmitted(string(mode), "ok")
	i.logger.Info("Ingestion initiated successfully", "process_id", ingest.ProcessID, "status", ingest.Status)

	res := &Result{Mode: mode, ProcessID: ingest.ProcessID, Status: ingest.Status, Index: idx}
	i.printResult(res)
	return res, nil
}

func (i *Ingester) loadIndex() (*domain.Index, error) {
	if i.index == nil {
		return nil, nil
	}
	idx, err := i.index.LoadIndex()
	if errors.Is(err, store.ErrNoIndex) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scrape index: %w", err)
	}
	return idx, nil
}

// source builds the crawl request; the hierarchy counts are attached when idx is set.
func (i *Ingester) source(idx *domain.Index) groundx.WebsiteSource {
	searchData := map[string]any{
		"source":      i.cfg.SourceName,
		"url":         i.cfg.SourceURL,
		"description": i.cfg.Description,
	}
	if idx != nil {
		searchData["organization_level"] = "hierarchical"
		searchData["total_sections"] = idx.TotalSections
		searchData["total_paragraphs"] = idx.TotalParagraphs
	}
	return groundx.WebsiteSource{
		BucketID:   i.cfg.BucketID,
		SourceURL:  i.cfg.SourceURL,
		Cap:        i.cfg.Cap,
		Depth:      i.cfg.Depth,
		SearchData: searchData,
	}
}

func (i *Ingester) printPlan(mode Mode, idx *domain.Index) {
	if mode == ModeHierarchical {
		i.out.Banner("GROUNDX HIERARCHICAL WEBSITE INGESTION")
		i.out.Printf("Bucket ID: %d\n", i.cfg.BucketID)
		i.out.Printf("\nOrganized Content Summary:\n")
		i.out.Printf("  Pages: %d\n", idx.TotalPages)
		i.out.Printf("  Sections: %d\n", idx.TotalSections)
		i.out.Printf("  Paragraphs: %d\n", idx.TotalParagraphs)
		i.out.Printf("  Total characters: %d\n\n", idx.TotalCharacters())
		return
	}

	i.out.Banner("GROUNDX WEBSITE CRAWL INGESTION")
	i.out.Printf("URL: %s\n", i.cfg.SourceURL)
	i.out.Printf("Bucket ID: %d\n", i.cfg.BucketID)
	i.out.Printf("Configuration: Max %d pages, Depth %d\n\n", i.cfg.Cap, i.cfg.Depth)
}

func (i *Ingester) printResult(res *Result) {
	i.out.Printf("\nSUCCESS: Website ingestion initiated!\n")
	i.out.Printf("Process ID: %s\n", res.ProcessID)
	i.out.Printf("Status: %s\n", res.Status)
	if res.Index != nil {
		i.out.Printf("\nHierarchical Organization:\n")
		i.out.Printf("  ✓ Pages identified: %d\n", res.Index.TotalPages)
		i.out.Printf("  ✓ Sections identified: %d\n", res.Index.TotalSections)
		i.out.Printf("  ✓ Paragraphs identified: %d\n", res.Index.TotalParagraphs)
	}
	i.out.Printf("\nIngestion Progress:\n")
	i.out.Printf("  Status: queued → training → complete\n")
	i.out.Printf("\nTo monitor progress, run:\n")
	i.out.Printf("  siterag status %s --continuous\n\n", res.ProcessID)
}
