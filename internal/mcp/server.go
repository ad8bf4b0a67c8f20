package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/siterag/internal/content"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name    string
	Version string
	// Content backs the search and read tools; nil registers no tools.
	Content *content.Service
}

// CreateServer creates and configures the MCP server
func CreateServer(cfg ServerConfig) *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	if cfg.Content != nil {
		content.RegisterSearchTool(s, cfg.Content)
		content.RegisterReadTool(s, cfg.Content)
	}

	return s
}
