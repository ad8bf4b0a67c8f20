package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/siterag/internal/config"
	"github.com/sha1n/siterag/internal/content"
	mcputil "github.com/sha1n/siterag/internal/mcp"
	"github.com/sha1n/siterag/internal/metrics"
	"github.com/sha1n/siterag/internal/store"
	"github.com/spf13/pflag"
)

// ServerName identifies the MCP server to clients.
const ServerName = "siterag"

// RunServe serves the scraped content to MCP clients over stdio or SSE.
func RunServe(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	env, err := setup(params, flags, config.CommandServe)
	if err != nil {
		return err
	}
	defer env.finish()

	env.logger.Info("Starting siterag MCP server", "version", version)

	create := params.CreateServer
	if create == nil {
		create = CreateMCPServer
	}
	mcpServer, cleanup, err := create(ctx, env.settings, env.metrics)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if env.settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	env.logger.Info("Starting SSE server", "host", env.settings.Host, "port", env.settings.Port)
	start := params.StartSSEServer
	if start == nil {
		start = StartSSEServer
	}
	return start(ctx, mcpServer, env.settings, env.metrics)
}

// CreateMCPServer creates the MCP server with the content tools registered.
// A content directory that cannot be initialized yields a server without
// tools rather than an error.
func CreateMCPServer(ctx context.Context, settings *config.Settings, m *metrics.Metrics) (*mcp.Server, func(), error) {
	svc, err := content.NewService(store.New(settings.OutputDir), content.Options{
		LockTimeout: settings.Content.LockTimeout,
		MaxResults:  settings.Content.MaxResults,
		Logger:      slog.Default(),
		Metrics:     m,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create content service: %w", err)
	}

	var cleanup func()
	if err := svc.Initialize(ctx); err != nil {
		slog.Error("Content initialization failed", "error", err)
		if closeErr := svc.Close(); closeErr != nil {
			slog.Error("Failed to close content service", "error", closeErr)
		}
		svc = nil
	} else {
		cleanup = func() {
			if err := svc.Close(); err != nil {
				slog.Error("Failed to close content service", "error", err)
			}
		}
	}

	server := mcputil.CreateServer(mcputil.ServerConfig{
		Name:    ServerName,
		Version: "1.0.0",
		Content: svc,
	})

	return server, cleanup, nil
}
