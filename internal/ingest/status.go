package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sha1n/siterag/internal/console"
	"github.com/sha1n/siterag/internal/groundx"
	"github.com/sha1n/siterag/internal/metrics"
)

// Polling defaults.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxAttempts  = 60
)

// StatusFetcher reads the state of an ingestion process.
type StatusFetcher interface {
	ProcessingStatus(ctx context.Context, processID string) (*groundx.Ingest, error)
}

// PollResult summarizes a Poll run.
type PollResult struct {
	// Completed is false when the attempt budget ran out first.
	Completed bool
	Attempts  int
	// Last is the last successfully fetched state, nil if none was.
	Last *groundx.Ingest
}

// StatusChecker prints and polls the state of ingestion processes.
type StatusChecker struct {
	client      StatusFetcher
	interval    time.Duration
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration) error
	out         *console.Console
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// NewStatusChecker creates a checker. Non-positive interval or maxAttempts
// select the defaults.
func NewStatusChecker(client StatusFetcher, interval time.Duration, maxAttempts int, opts ...Option) *StatusChecker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	o := buildOptions(opts)
	return &StatusChecker{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
		out:         o.out,
		logger:      o.logger,
		metrics:     o.metrics,
	}
}

// Check fetches and prints the current state of processID once.
func (s *StatusChecker) Check(ctx context.Context, processID string) (*groundx.Ingest, error) {
	ingest, err := s.client.ProcessingStatus(ctx, processID)
	if err != nil {
		s.metrics.StatusChecked("error")
		s.out.Failure("Error: %v", err)
		return nil, err
	}
	s.metrics.StatusChecked(ingest.Status)

	docs := ingest.DocumentsIndexed()
	s.out.Banner("INGESTION PROCESS STATUS")
	s.out.Printf("Process ID: %s\n", processID)
	s.out.Printf("Status: %s\n", strings.ToUpper(ingest.Status))
	s.out.Println(console.ProgressLine(ingest.Status, docs))
	if docs > 0 {
		s.out.Printf("Documents Indexed: %d\n", docs)
	}

	switch ingest.Status {
	case groundx.StatusComplete:
		s.out.Println()
		s.out.Success("Ingestion Complete! Documents are ready for search.")
	case groundx.StatusTraining:
		s.out.Println()
		s.out.Pending("Processing in progress... Check again in a few seconds.")
	case groundx.StatusQueued:
		s.out.Println()
		s.out.Pending("Waiting to start processing...")
	}
	s.out.Rule()
	s.out.Println()

	return ingest, nil
}

// Poll checks processID until it completes or the attempt budget is spent.
// Failed checks are printed and count as attempts. Running out of attempts is
// not an error; the remote process may still be running. Only context
// cancellation is returned as an error.
func (s *StatusChecker) Poll(ctx context.Context, processID string) (*PollResult, error) {
	res := &PollResult{}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Attempts = attempt
		s.out.Printf("Check %d/%d...\n", attempt, s.maxAttempts)

		ingest, err := s.Check(ctx, processID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			s.logger.Warn("Status check failed", "process_id", processID, "attempt", attempt, "error", err)
		} else {
			res.Last = ingest
			if ingest.Status == groundx.StatusComplete {
				res.Completed = true
				s.out.Success("Ingestion completed successfully!")
				return res, nil
			}
		}

		if attempt < s.maxAttempts {
			s.out.Printf("Waiting %s before next check...\n\n", s.interval)
			if err := s.sleep(ctx, s.interval); err != nil {
				return res, err
			}
		}
	}

	s.out.Failure("Max attempts reached. Process may still be running.")
	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
