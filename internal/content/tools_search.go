package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/siterag/internal/localindex"
)

// SearchToolName is the MCP name of the search tool.
const SearchToolName = "search_content"

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query  string `json:"query" jsonschema_description:"Full-text query over the scraped paragraphs (supports phrases)"`
	PageID string `json:"page_id,omitempty" jsonschema_description:"Restrict results to one page (12-character page ID)"`
}

// SearchHandler handles the search MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	result := h.handle(args)
	h.service.Metrics().ToolCalled(SearchToolName, result.IsError)
	return result, nil, nil
}

func (h *SearchHandler) handle(args SearchArgument) *mcp.CallToolResult {
	if !h.service.IsReady() {
		return errorResult("Search is not available. The site has not been scraped and indexed yet. Run the scrape command first.")
	}

	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty")
	}

	index, err := h.service.Index()
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to access index: %s", err))
	}

	results, err := index.Search(args.Query, strings.TrimSpace(args.PageID), h.service.MaxResults())
	if err != nil {
		return errorResult(fmt.Sprintf("Search failed: %s", err))
	}

	return textResult(formatSearchResults(results, args.Query))
}

// formatSearchResults renders hits as markdown, with IDs a client can pass
// to the read tool.
func formatSearchResults(results *localindex.Result, queryStr string) string {
	if results.Total == 0 {
		return fmt.Sprintf("No results found for query: %s", queryStr)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d results for '%s':\n\n", results.Total, queryStr)

	for i, hit := range results.Hits {
		title := hit.PageTitle
		if hit.SectionTitle != "" {
			title += " > " + hit.SectionTitle
		}
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, title)
		fmt.Fprintf(&sb, "**URL**: %s\n", hit.URL)
		fmt.Fprintf(&sb, "**Paragraph**: `%s` **Section**: `%s` **Page**: `%s`\n", hit.ID, hit.SectionID, hit.PageID)
		fmt.Fprintf(&sb, "**Score**: %.4f\n\n", hit.Score)

		for _, fragment := range hit.Fragments {
			sb.WriteString("> ")
			sb.WriteString(strings.ReplaceAll(fragment, "\n", " "))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if results.Total > uint64(len(results.Hits)) {
		fmt.Fprintf(&sb, "... and %d more results\n", results.Total-uint64(len(results.Hits)))
	}

	return sb.String()
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        SearchToolName,
		Description: "Search the scraped website content using full-text search over paragraphs",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
