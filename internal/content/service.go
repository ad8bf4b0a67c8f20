// Package content serves the scraped site to MCP clients: it keeps the local
// full-text index in sync with the content directory and exposes search and
// read tools over it.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sha1n/siterag/internal/domain"
	"github.com/sha1n/siterag/internal/localindex"
	"github.com/sha1n/siterag/internal/metrics"
	"github.com/sha1n/siterag/internal/store"
)

// Defaults for Options.
const (
	DefaultLockTimeout = 60 * time.Second
	DefaultMaxResults  = 10
)

// Options tune a Service.
type Options struct {
	// LockTimeout bounds the wait for another process writing the directory.
	LockTimeout time.Duration
	MaxResults  int
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	// Now stamps index rebuilds; defaults to time.Now.
	Now func() time.Time
}

// Service coordinates the content store and the local index.
type Service struct {
	store       *store.Store
	lock        *store.DirLock
	lockTimeout time.Duration
	maxResults  int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time

	mu      sync.RWMutex
	index   *localindex.Index
	summary *domain.Index
	ready   bool
}

// NewService creates a service over the content directory of st.
func NewService(st *store.Store, opts Options) (*Service, error) {
	if st == nil {
		return nil, errors.New("store cannot be nil")
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:       st,
		lock:        st.Lock(),
		lockTimeout: opts.LockTimeout,
		maxResults:  opts.MaxResults,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}, nil
}

// Initialize prepares the service with leader/follower logic: the process that
// takes the directory lock rebuilds a stale local index, others wait for it.
// A directory that was never scraped leaves the service not ready, which is
// not an error.
func (s *Service) Initialize(ctx context.Context) error {
	acquired, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if acquired {
		s.logger.Info("Acquired content lock, checking local index")
		if err := s.syncIndex(); err != nil {
			s.logger.Error("Local index rebuild failed", "error", err)
			// Continue to open whatever index exists
		}
		if err := s.lock.Unlock(); err != nil {
			s.logger.Error("Failed to unlock", "error", err)
		}
	} else {
		s.logger.Info("Another process is writing the content directory, waiting for completion")
		if err := s.lock.Wait(ctx, s.lockTimeout); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("Timeout waiting for content lock, using existing index", "error", err)
		} else if err := s.lock.Unlock(); err != nil {
			s.logger.Error("Failed to unlock", "error", err)
		}
	}

	return s.open()
}

// syncIndex rebuilds the local index when the manifest says it is stale or
// when it is missing. The caller holds the directory lock.
func (s *Service) syncIndex() error {
	manifest, err := store.LoadManifest(s.store.ManifestPath())
	if err != nil {
		return err
	}

	if !s.store.HasIndex() {
		s.logger.Warn("Content directory has not been scraped yet", "dir", s.store.Dir())
		return nil
	}
	if !manifest.NeedsReindex() && localindex.Exists(s.store.LocalIndexPath()) {
		s.logger.Info("Local index is up to date", "indexed_at", manifest.IndexedAt)
		return nil
	}

	docs, err := RebuildIndex(s.store, manifest, s.now())
	if err != nil {
		return err
	}
	s.metrics.LocalIndexBuilt(docs)
	s.logger.Info("Local index rebuilt", "documents", docs)
	return nil
}

// RebuildIndex builds the local index from the export of st and records the
// rebuild in manifest. The caller must hold the directory lock.
func RebuildIndex(st *store.Store, manifest *store.Manifest, at time.Time) (int, error) {
	export, err := st.LoadExport()
	if err != nil {
		return 0, fmt.Errorf("failed to load export: %w", err)
	}

	docs, err := localindex.Build(st.LocalIndexPath(), *export)
	if err != nil {
		return 0, fmt.Errorf("failed to build local index: %w", err)
	}

	manifest.RecordIndex(docs, at)
	if err := manifest.Save(st.ManifestPath()); err != nil {
		return docs, err
	}
	return docs, nil
}

// open opens the local index and loads the scrape summary.
func (s *Service) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.store.LoadIndex()
	if errors.Is(err, store.ErrNoIndex) {
		s.logger.Warn("No scraped content available")
		s.ready = false
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load content index: %w", err)
	}

	index, err := localindex.Open(s.store.LocalIndexPath())
	if errors.Is(err, localindex.ErrNoLocalIndex) {
		s.logger.Warn("No local index available")
		s.ready = false
		return nil
	}
	if err != nil {
		return err
	}

	s.index = index
	s.summary = summary
	s.ready = true
	s.logger.Info("Content ready", "pages", summary.TotalPages, "paragraphs", summary.TotalParagraphs)
	return nil
}

// IsReady returns true if the local index is open for search.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Index returns the open local index.
func (s *Service) Index() (*localindex.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.index == nil {
		return nil, errors.New("local index not ready")
	}
	return s.index, nil
}

// Summary returns the scrape summary loaded at initialization.
func (s *Service) Summary() (*domain.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.summary == nil {
		return nil, errors.New("content not ready")
	}
	return s.summary, nil
}

// Store returns the content store.
func (s *Service) Store() *store.Store {
	return s.store
}

// MaxResults returns the maximum number of search hits per call.
func (s *Service) MaxResults() int {
	return s.maxResults
}

// Metrics returns the metrics sink, possibly nil.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Close releases all resources.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		s.index = nil
	}

	s.ready = false
	return nil
}
