package config

import (
	"context"
	"io"
	"log/slog"
)

const masked = "****"

// NewLogger creates the text logger used by every command.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Log logs the settings relevant to command
func Log(s *Settings, command string) {
	LogWithLogger(s, command, slog.Default())
}

// LogWithLogger logs the settings relevant to command, with secrets masked
func LogWithLogger(s *Settings, command string, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: output_dir", "value", s.OutputDir)

	switch command {
	case CommandScrape:
		logger.InfoContext(ctx, "Config: crawl", "value", CrawlSettingsLogValue(s.Crawl))
	case CommandIngest, CommandStatus:
		logger.InfoContext(ctx, "Config: groundx", "value", GroundXSettingsLogValue(s.GroundX))
		logger.InfoContext(ctx, "Config: ingest", "value", IngestSettingsLogValue(s.Ingest))
	case CommandChat:
		logger.InfoContext(ctx, "Config: groundx", "value", GroundXSettingsLogValue(s.GroundX))
		logger.InfoContext(ctx, "Config: llm", "value", LLMSettingsLogValue(s.LLM))
		logger.InfoContext(ctx, "Config: query.min_score", "value", s.Query.MinScore)
	case CommandServe:
		logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
		if s.Transport == "sse" {
			logger.InfoContext(ctx, "Config: host", "value", s.Host)
			logger.InfoContext(ctx, "Config: port", "value", s.Port)
		}
		logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
		switch s.Auth.Type {
		case AuthTypeBasic:
			logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
			logger.InfoContext(ctx, "Config: auth.basic.password", "value", masked)
		case AuthTypeAPIKey:
			logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
		}
	}
}

// maskSecret hides a secret while still telling whether it is set
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return masked
}

// CrawlSettingsLogValue returns a slog.Value for CrawlSettings
func CrawlSettingsLogValue(c CrawlSettings) slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.BaseURL),
		slog.Int("max_pages", c.MaxPages),
		slog.Int("max_depth", c.MaxDepth),
		slog.Float64("requests_per_second", c.RequestsPerSecond),
		slog.Duration("fetch_timeout", c.FetchTimeout),
	)
}

// GroundXSettingsLogValue returns a slog.Value for GroundXSettings with masked data
func GroundXSettingsLogValue(g GroundXSettings) slog.Value {
	return slog.GroupValue(
		slog.String("api_key", maskSecret(g.APIKey)),
		slog.Int("bucket_id", g.BucketID),
		slog.String("base_url", g.BaseURL),
	)
}

// IngestSettingsLogValue returns a slog.Value for IngestSettings
func IngestSettingsLogValue(i IngestSettings) slog.Value {
	return slog.GroupValue(
		slog.String("source_url", i.SourceURL),
		slog.Int("cap", i.Cap),
		slog.Int("depth", i.Depth),
		slog.Duration("poll_interval", i.PollInterval),
		slog.Int("max_attempts", i.MaxAttempts),
	)
}

// LLMSettingsLogValue returns a slog.Value for LLMSettings with masked data
func LLMSettingsLogValue(l LLMSettings) slog.Value {
	return slog.GroupValue(
		slog.String("api_key", maskSecret(l.APIKey)),
		slog.String("api_base", l.APIBase),
		slog.String("model", l.Model),
	)
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked data
func AuthSettingsLogValue(s AuthSettings) slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = masked
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.String("username", s.Basic.Username),
		slog.String("password", maskSecret(s.Basic.Password)),
		slog.Any("api_keys", keys),
	)
}

// SettingsLogValue returns a slog.Value for Settings with masked data
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("output_dir", s.OutputDir),
		slog.Any("crawl", CrawlSettingsLogValue(s.Crawl)),
		slog.Any("groundx", GroundXSettingsLogValue(s.GroundX)),
		slog.Any("ingest", IngestSettingsLogValue(s.Ingest)),
		slog.Any("llm", LLMSettingsLogValue(s.LLM)),
		slog.String("transport", s.Transport),
		slog.Any("auth", AuthSettingsLogValue(s.Auth)),
	)
}
