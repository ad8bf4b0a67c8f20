package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/siterag/internal/domain"
	"github.com/sha1n/siterag/internal/store"
)

// ReadToolName is the MCP name of the read tool.
const ReadToolName = "read_content"

// Record kinds accepted by the read tool.
const (
	KindPage      = "page"
	KindSection   = "section"
	KindParagraph = "paragraph"
)

// ReadArgument defines read parameters.
type ReadArgument struct {
	Kind string `json:"kind" jsonschema_description:"Record kind: page, section or paragraph"`
	ID   string `json:"id" jsonschema_description:"12-character record ID as returned by search_content"`
}

// ReadHandler handles the read MCP tool.
type ReadHandler struct {
	service *Service
}

// NewReadHandler creates a new read handler.
func NewReadHandler(service *Service) *ReadHandler {
	return &ReadHandler{service: service}
}

// Handle reads one stored record and returns it as markdown.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgument) (*mcp.CallToolResult, any, error) {
	result := h.handle(args)
	h.service.Metrics().ToolCalled(ReadToolName, result.IsError)
	return result, nil, nil
}

func (h *ReadHandler) handle(args ReadArgument) *mcp.CallToolResult {
	if !h.service.IsReady() {
		return errorResult("Read is not available. The site has not been scraped yet. Run the scrape command first.")
	}

	kind := strings.ToLower(strings.TrimSpace(args.Kind))
	id := strings.ToLower(strings.TrimSpace(args.ID))
	if id == "" {
		return errorResult("ID cannot be empty")
	}

	st := h.service.Store()
	var (
		text string
		err  error
	)
	switch kind {
	case KindPage:
		var page *domain.Page
		if page, err = st.LoadPage(id); err == nil {
			text = formatPage(page)
		}
	case KindSection:
		var section *domain.Section
		if section, err = st.LoadSection(id); err == nil {
			text, err = h.formatSection(section)
		}
	case KindParagraph:
		var paragraph *domain.Paragraph
		if paragraph, err = st.LoadParagraph(id); err == nil {
			text = formatParagraph(paragraph)
		}
	default:
		return errorResult(fmt.Sprintf("Unknown kind %q, expected page, section or paragraph", args.Kind))
	}

	switch {
	case errors.Is(err, store.ErrInvalidID):
		return errorResult(fmt.Sprintf("Invalid ID: %s", args.ID))
	case errors.Is(err, store.ErrNotFound):
		return errorResult(fmt.Sprintf("%s not found: %s", kind, id))
	case err != nil:
		return errorResult(fmt.Sprintf("Error reading %s: %s", kind, err))
	}
	return textResult(text)
}

func formatPage(page *domain.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Page**: %s\n", page.Title)
	fmt.Fprintf(&sb, "**URL**: %s\n", page.URL)
	fmt.Fprintf(&sb, "**Characters**: %d\n\n", page.CharacterCount)
	sb.WriteString(page.Content)
	return sb.String()
}

// formatSection renders a section with the full text of its paragraphs, in
// document order.
func (h *ReadHandler) formatSection(section *domain.Section) (string, error) {
	summary, err := h.service.Summary()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Section**: %s\n", section.Title)
	fmt.Fprintf(&sb, "**URL**: %s\n", section.URL)
	fmt.Fprintf(&sb, "**Page**: `%s`\n", section.PageID)
	fmt.Fprintf(&sb, "**Paragraphs**: %d\n\n", section.ParagraphCount)

	st := h.service.Store()
	for _, entry := range summary.Paragraphs {
		if entry.SectionID != section.ID {
			continue
		}
		paragraph, err := st.LoadParagraph(entry.ID)
		if err != nil {
			return "", fmt.Errorf("failed to load paragraph %s: %w", entry.ID, err)
		}
		fmt.Fprintf(&sb, "[`%s`]\n%s\n\n", paragraph.ID, paragraph.Content)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func formatParagraph(paragraph *domain.Paragraph) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Paragraph**: `%s`\n", paragraph.ID)
	fmt.Fprintf(&sb, "**URL**: %s\n", paragraph.URL)
	fmt.Fprintf(&sb, "**Section**: `%s` **Page**: `%s`\n\n", paragraph.SectionID, paragraph.PageID)
	sb.WriteString(paragraph.Content)
	return sb.String()
}

// GetToolDefinition returns the MCP tool definition.
func (h *ReadHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        ReadToolName,
		Description: "Read a scraped page, section or paragraph by ID",
	}
}

// RegisterReadTool registers the read tool with an MCP server.
func RegisterReadTool(server *mcp.Server, service *Service) {
	handler := NewReadHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
