package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sha1n/siterag/internal/chat"
	"github.com/sha1n/siterag/internal/config"
	"github.com/sha1n/siterag/internal/groundx"
	"github.com/sha1n/siterag/internal/ingest"
	"github.com/sha1n/siterag/internal/llm"
	"github.com/sha1n/siterag/internal/rag"
	"github.com/sha1n/siterag/internal/store"
	"github.com/spf13/pflag"
)

func newGroundXClient(env *runEnv) (*groundx.Client, error) {
	return groundx.New(groundx.Config{
		APIKey:  env.settings.GroundX.APIKey,
		BaseURL: env.settings.GroundX.BaseURL,
		Timeout: env.settings.GroundX.Timeout,
	}, env.logger)
}

// RunIngest submits the site to the platform, hierarchically when a local
// scrape exists.
func RunIngest(ctx context.Context, params RunParams, flags *pflag.FlagSet) error {
	env, err := setup(params, flags, config.CommandIngest)
	if err != nil {
		return err
	}
	defer env.finish()

	client, err := newGroundXClient(env)
	if err != nil {
		return err
	}

	s := env.settings
	ingester := ingest.NewIngester(client, store.New(s.OutputDir), ingest.Config{
		BucketID:    s.GroundX.BucketID,
		SourceURL:   s.Ingest.SourceURL,
		Cap:         s.Ingest.Cap,
		Depth:       s.Ingest.Depth,
		SourceName:  s.Ingest.SourceName,
		Description: s.Ingest.Description,
	}, ingest.WithConsole(env.out), ingest.WithLogger(env.logger), ingest.WithMetrics(env.metrics))

	if _, err := ingester.Ingest(ctx); err != nil {
		env.out.Error(err)
		return err
	}
	return nil
}

// RunStatus prints the state of an ingestion process once, or polls it until
// completion when the continuous flag is set.
func RunStatus(ctx context.Context, params RunParams, flags *pflag.FlagSet, processID string) error {
	processID = strings.TrimSpace(processID)
	if processID == "" {
		return errors.New("process ID cannot be empty")
	}

	env, err := setup(params, flags, config.CommandStatus)
	if err != nil {
		return err
	}
	defer env.finish()

	client, err := newGroundXClient(env)
	if err != nil {
		return err
	}

	checker := ingest.NewStatusChecker(client, env.settings.Ingest.PollInterval, env.settings.Ingest.MaxAttempts,
		ingest.WithConsole(env.out), ingest.WithLogger(env.logger), ingest.WithMetrics(env.metrics))

	continuous := false
	if flags != nil {
		continuous, _ = flags.GetBool("continuous")
	}

	if !continuous {
		_, err := checker.Check(ctx, processID)
		return err
	}

	env.out.Printf("Monitoring ingestion process: %s\n", processID)
	env.out.Printf("Checking every %s (max %d attempts)\n\n", env.settings.Ingest.PollInterval, env.settings.Ingest.MaxAttempts)

	res, err := checker.Poll(ctx, processID)
	if err != nil && ctx.Err() != nil {
		env.out.Printf("\n\nMonitoring interrupted after %d checks.\n", res.Attempts)
		return nil
	}
	return err
}

// RunChat answers questions from stdin until the user exits.
func RunChat(ctx context.Context, params RunParams, flags *pflag.FlagSet) error {
	env, err := setup(params, flags, config.CommandChat)
	if err != nil {
		return err
	}
	defer env.finish()

	client, err := newGroundXClient(env)
	if err != nil {
		return err
	}

	s := env.settings
	opts := []rag.Option{
		rag.WithPolicy(rag.Policy{
			MinScore:      s.Query.MinScore,
			DisplayLimit:  s.Query.DisplayLimit,
			FallbackLimit: s.Query.FallbackLimit,
			Marker:        rag.DefaultTruncationMarker,
		}),
		rag.WithLogger(env.logger),
		rag.WithMetrics(env.metrics),
	}
	if s.LLMEnabled() {
		completer, err := llm.New(llm.Config{
			APIKey:      s.LLM.APIKey,
			BaseURL:     s.LLM.APIBase,
			Model:       s.LLM.Model,
			Timeout:     s.LLM.Timeout,
			Temperature: s.LLM.Temperature,
			MaxTokens:   s.LLM.MaxTokens,
		}, env.logger)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		opts = append(opts, rag.WithCompleter(completer))
	} else {
		env.logger.Info("LLM_API_KEY not set, answers show the raw search results")
	}

	stdin := params.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	chatOpts := []chat.Option{chat.WithLogger(env.logger)}
	if s.Query.Name != "" {
		chatOpts = append(chatOpts, chat.WithName(s.Query.Name))
	}

	answerer := rag.NewAnswerer(client, s.GroundX.BucketID, opts...)
	session := chat.NewSession(answerer, stdin, env.out, chatOpts...)

	summary := session.Run(ctx)
	env.out.Muted("Questions asked: %d", summary.Queries)
	return nil
}
