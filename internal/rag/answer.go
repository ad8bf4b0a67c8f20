// Package rag turns a platform search into a user-facing answer: it applies
// the relevance policy and optionally synthesizes the answer with an LLM.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sha1n/siterag/internal/groundx"
	"github.com/sha1n/siterag/internal/metrics"
)

// Outcome classifies an answered query.
type Outcome string

const (
	// OutcomeAnswered means the search was relevant enough to show an answer.
	OutcomeAnswered Outcome = "answered"
	// OutcomeNotFound means the search returned nothing.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeLowRelevance means the aggregate score is below Policy.MinScore.
	OutcomeLowRelevance Outcome = "low_relevance"
)

// DefaultTruncationMarker is appended to text cut for display.
const DefaultTruncationMarker = "\n[... truncated for display]"

// Policy holds the tunable answer thresholds.
type Policy struct {
	// MinScore is the lowest aggregate score (0-100) that yields an answer.
	MinScore float64
	// DisplayLimit caps the raw platform text when no LLM is configured.
	DisplayLimit int
	// FallbackLimit caps the raw context shown after an LLM failure.
	FallbackLimit int
	Marker        string
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinScore:      50,
		DisplayLimit:  1200,
		FallbackLimit: 1500,
		Marker:        DefaultTruncationMarker,
	}
}

// Searcher queries the platform.
type Searcher interface {
	Search(ctx context.Context, bucketID int, query string) (*groundx.Search, error)
}

// Completer generates text from a system instruction and a user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Answer is the result of one query.
type Answer struct {
	Query   string
	Outcome Outcome
	Count   int
	Score   float64
	// Text is the answer to display; empty unless Outcome is OutcomeAnswered.
	Text      string
	Truncated bool
	// Generated is set when Text came from the LLM.
	Generated bool
	// LLMErr is the swallowed LLM failure that caused a fallback, if any.
	LLMErr error
	// Top is the best ranked hit, nil when there are none.
	Top *groundx.SearchResult
}

// Answerer answers questions against one bucket.
type Answerer struct {
	searcher  Searcher
	completer Completer
	bucketID  int
	policy    Policy
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithCompleter enables LLM synthesis.
func WithCompleter(c Completer) Option {
	return func(a *Answerer) {
		a.completer = c
	}
}

// WithPolicy overrides the default policy.
func WithPolicy(p Policy) Option {
	return func(a *Answerer) {
		a.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Answerer) {
		a.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Answerer) {
		a.metrics = m
	}
}

// NewAnswerer creates an answerer for the given bucket.
func NewAnswerer(searcher Searcher, bucketID int, opts ...Option) *Answerer {
	a := &Answerer{
		searcher: searcher,
		bucketID: bucketID,
		policy:   DefaultPolicy(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer searches the bucket and applies the policy. An empty result takes
// precedence over a low score. LLM failures never fail the query; the raw
// context is returned instead. Only search failures are returned as errors.
func (a *Answerer) Answer(ctx context.Context, query string) (*Answer, error) {
	a.logger.Info("Query", "query", query)

	search, err := a.searcher.Search(ctx, a.bucketID, query)
	if err != nil {
		a.metrics.QueryAnswered("error")
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ans := &Answer{Query: query, Count: search.Count, Score: search.Score}
	if len(search.Results) > 0 {
		top := search.Results[0]
		ans.Top = &top
	}

	switch {
	case search.Count == 0 || len(search.Results) == 0:
		ans.Outcome = OutcomeNotFound
		a.logger.Warn("No results found", "query", query)
	case search.Score < a.policy.MinScore:
		ans.Outcome = OutcomeLowRelevance
		a.logger.Info("Low relevance", "query", query, "score", search.Score)
	default:
		ans.Outcome = OutcomeAnswered
		a.compose(ctx, ans, search.Text)
		a.logger.Info("Search successful", "results", search.Count, "score", search.Score)
	}

	a.metrics.QueryAnswered(string(ans.Outcome))
	return ans, nil
}

func (a *Answerer) compose(ctx context.Context, ans *Answer, span string) {
	if a.completer == nil {
		ans.Text, ans.Truncated = Truncate(span, a.policy.DisplayLimit, a.policy.Marker)
		return
	}

	generated, err := a.completer.Complete(ctx, SystemPrompt(span), ans.Query)
	if err == nil && generated != "" {
		ans.Text = generated
		ans.Generated = true
		return
	}
	if err == nil {
		err = errors.New("empty completion")
	}

	a.logger.Warn("LLM generation failed, showing retrieved context", "error", err)
	a.metrics.LLMFallback()
	ans.LLMErr = err
	ans.Text, ans.Truncated = Truncate(span, a.policy.FallbackLimit, a.policy.Marker)
}

// SystemPrompt builds the instruction that restricts the model to context.
func SystemPrompt(span string) string {
	return "You are a helpful assistant answering questions about a company website. " +
		"Answer only from the context below. If the context does not contain the answer, " +
		"say that the information is not available.\n\nContext:\n" + span
}

// Truncate cuts s to limit runes and appends marker when it did.
// A non-positive limit disables truncation.
func Truncate(s string, limit int, marker string) (string, bool) {
	if limit <= 0 {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i] + marker, true
		}
		n++
	}
	return s, false
}
