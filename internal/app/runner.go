package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/siterag/internal/config"
	"github.com/sha1n/siterag/internal/console"
	"github.com/sha1n/siterag/internal/crawler"
	"github.com/sha1n/siterag/internal/metrics"
	"github.com/spf13/pflag"
)

// RunParams contains dependencies for the run functions
type RunParams struct {
	LoadSettings   func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings  func(*config.Settings, string) error
	NewFetcher     func(*config.Settings) crawler.Fetcher
	StartSSEServer func(context.Context, *mcp.Server, *config.Settings, *metrics.Metrics) error
	CreateServer   func(context.Context, *config.Settings, *metrics.Metrics) (*mcp.Server, func(), error)
	Now            func() time.Time

	Stdin  io.Reader
	Stdout io.Writer
	// Stderr receives the logs
	Stderr io.Writer

	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		NewFetcher:     newHTTPFetcher,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
		Now:            time.Now,
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	}
}

func newHTTPFetcher(settings *config.Settings) crawler.Fetcher {
	return crawler.NewHTTPFetcher(settings.Crawl.FetchTimeout, settings.Crawl.UserAgent)
}

// runEnv is what every command starts with.
type runEnv struct {
	settings *config.Settings
	logger   *slog.Logger
	out      *console.Console
	metrics  *metrics.Metrics
}

// setup loads and validates the settings of command and configures logging.
func setup(params RunParams, flags *pflag.FlagSet, command string) (*runEnv, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings, command); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Logs always go to stderr so they never mix with console output or the
	// stdio transport
	stderr := params.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := config.NewLogger(stderr, settings.LogLevel)
	slog.SetDefault(logger)
	config.LogWithLogger(settings, command, logger)

	stdout := params.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	return &runEnv{
		settings: settings,
		logger:   logger,
		out:      console.New(stdout),
		metrics:  metrics.New(),
	}, nil
}

// finish writes the metrics file of the run, if one is configured.
func (e *runEnv) finish() {
	if err := e.metrics.WriteFile(e.settings.MetricsFile); err != nil {
		e.logger.Error("Failed to write metrics file", "path", e.settings.MetricsFile, "error", err)
	}
}

func (p RunParams) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
