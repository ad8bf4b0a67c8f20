package app

import (
	"context"
	"fmt"

	"github.com/sha1n/siterag/internal/config"
	"github.com/sha1n/siterag/internal/console"
	"github.com/sha1n/siterag/internal/content"
	"github.com/sha1n/siterag/internal/crawler"
	"github.com/sha1n/siterag/internal/domain"
	"github.com/sha1n/siterag/internal/metrics"
	"github.com/sha1n/siterag/internal/store"
	"github.com/spf13/pflag"
)

// RunScrape crawls the site, persists the hierarchy and rebuilds the local
// search index. An interrupted crawl still persists what was collected.
func RunScrape(ctx context.Context, params RunParams, flags *pflag.FlagSet) error {
	env, err := setup(params, flags, config.CommandScrape)
	if err != nil {
		return err
	}
	defer env.finish()

	settings := env.settings
	st := store.New(settings.OutputDir)

	lock := st.Lock()
	acquired, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", store.ErrLocked, settings.OutputDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			env.logger.Error("Failed to unlock", "error", err)
		}
	}()

	fetcher := params.NewFetcher
	if fetcher == nil {
		fetcher = newHTTPFetcher
	}
	c, err := crawler.New(crawler.Config{
		BaseURL:           settings.Crawl.BaseURL,
		MaxPages:          settings.Crawl.MaxPages,
		MaxDepth:          settings.Crawl.MaxDepth,
		RequestsPerSecond: settings.Crawl.RequestsPerSecond,
	}, fetcher(settings),
		crawler.WithObserver(&scrapeObserver{out: env.out, metrics: env.metrics}),
		crawler.WithLogger(env.logger),
	)
	if err != nil {
		return err
	}

	env.out.Printf("Starting hierarchical scraping of %s...\n", settings.Crawl.BaseURL)
	env.out.Printf("Max pages: %d\n\n", settings.Crawl.MaxPages)

	res, crawlErr := c.Crawl(ctx)
	interrupted := crawlErr != nil && ctx.Err() != nil
	if crawlErr != nil && !interrupted {
		env.out.Error(fmt.Errorf("scraping failed: %w", crawlErr))
		return crawlErr
	}
	if interrupted {
		env.out.Printf("\n")
		env.out.Failure("Scraping interrupted, saving %d pages collected so far", len(res.Pages))
	}

	export := res.Export()
	if _, err := st.Save(export); err != nil {
		env.out.Error(fmt.Errorf("failed to save data: %w", err))
		return err
	}
	env.metrics.ParagraphsStored(len(res.Paragraphs))

	manifest, err := store.LoadManifest(st.ManifestPath())
	if err != nil {
		env.logger.Warn("Ignoring unreadable manifest", "error", err)
		manifest = store.NewManifest()
	}
	now := params.now()
	manifest.RecordScrape(settings.Crawl.BaseURL, len(res.Pages), len(res.Sections), len(res.Paragraphs), len(res.Failures), now)

	docs, err := content.RebuildIndex(st, manifest, now)
	if err != nil {
		// The next serve rebuilds it, so the scrape itself still succeeds
		env.logger.Error("Local index rebuild failed", "error", err)
		if err := manifest.Save(st.ManifestPath()); err != nil {
			return err
		}
	} else {
		env.metrics.LocalIndexBuilt(docs)
	}

	printScrapeSummary(env.out, res, settings.OutputDir, !interrupted, err == nil)
	return nil
}

func printScrapeSummary(out *console.Console, res *crawler.Result, dir string, complete, indexed bool) {
	out.Println()
	if complete {
		out.Success("Scraping completed successfully!")
	} else {
		out.Println("Partial results:")
	}
	out.Printf("  Pages scraped: %d\n", len(res.Pages))
	out.Printf("  Sections extracted: %d\n", len(res.Sections))
	out.Printf("  Paragraphs extracted: %d\n", len(res.Paragraphs))
	out.Printf("  Total characters: %d\n", res.TotalCharacters())
	if len(res.Failures) > 0 {
		out.Printf("  Failed URLs: %d\n", len(res.Failures))
	}

	out.Println()
	out.Success("Data saved to %s/", dir)
	out.Printf("  - %-14s(%d files)\n", store.PagesDir+"/", len(res.Pages))
	out.Printf("  - %-14s(%d files)\n", store.SectionsDir+"/", len(res.Sections))
	out.Printf("  - %-14s(%d files)\n", store.ParagraphsDir+"/", len(res.Paragraphs))
	out.Printf("  - %-14s(metadata index)\n", store.IndexFilename)
	out.Printf("  - %s (full hierarchical data)\n", store.ExportFilename)
	if indexed {
		out.Printf("  - %s/ (local search index)\n", store.LocalIndexDir)
	}
}

// scrapeObserver prints crawl progress and counts it.
type scrapeObserver struct {
	out     *console.Console
	metrics *metrics.Metrics
}

func (o *scrapeObserver) Visiting(n int, url string) {
	o.out.Printf("[%d] Scraping: %s\n", n, url)
}

func (o *scrapeObserver) Visited(url string, page *domain.Page, sections, paragraphs int) {
	if page == nil {
		o.out.Muted("  skipped: not enough content")
		return
	}
	o.metrics.PageCrawled()
	o.out.Muted("  %s: %d sections, %d paragraphs", page.Title, sections, paragraphs)
}

func (o *scrapeObserver) Failed(url string, err error) {
	o.metrics.CrawlFailed()
	o.out.Failure("Error scraping %s: %v", url, err)
}
