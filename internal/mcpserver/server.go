// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes leafnote tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/leafnote/internal/api"
	"github.com/starford/leafnote/internal/markdown"
)

const formatURI = "leafnote://format"

// Server wraps the MCP server with leafnote tools.
type Server struct {
	mcp *server.MCPServer
	svc *api.Service
}

// New creates a new MCP server with all leafnote tools registered.
func New(svc *api.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"leafnote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all page titles with note counts and the active page."),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("read_page",
		mcp.WithDescription("Read the notes of a page without selecting it. "+
			"Omit title to read the active page."),
		mcp.WithString("title", mcp.Description("Page title (empty for the active page)")),
		mcp.WithString("format", mcp.Description("Output format"), mcp.Enum("json", "markdown")),
	), s.readPage)

	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create an empty page. Titles must be unique and non-empty."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the new page")),
	), s.createPage)

	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page and all of its notes."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the page to delete")),
	), s.deletePage)

	s.mcp.AddTool(mcp.NewTool("select_page",
		mcp.WithDescription("Make a page active so note tools act on it."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title of the page to select")),
	), s.selectPage)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Append an unchecked note to the active page."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note text (non-empty)")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("toggle_note",
		mcp.WithDescription("Flip the checkbox of a note on the active page."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based note index")),
	), s.toggleNote)

	s.mcp.AddTool(mcp.NewTool("delete_notes",
		mcp.WithDescription("Delete several notes from the active page in one call."),
		mcp.WithArray("indices", mcp.Required(),
			mcp.Description("Zero-based note indices"),
			mcp.Items(map[string]any{"type": "integer"})),
	), s.deleteNotes)

	s.mcp.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Write the library to storage now."),
	), s.save)

	s.mcp.AddTool(mcp.NewTool("get_format_guide",
		mcp.WithDescription("Returns how pages and notes are organized. Call this first."),
	), s.getFormatGuide)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "leafnote Format Guide",
			mcp.WithResourceDescription("How pages, notes and the active page work."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// decode unmarshals tool arguments into a typed struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.Pages(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(list.Pages) == 0 {
		return mcp.NewToolResultText("no pages"), nil
	}
	return jsonResult(list), nil
}

func (s *Server) readPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	format := req.GetString("format", "json")

	var page api.PageResponse
	if title == "" {
		page = s.svc.Current(ctx)
		if page.Title == "" {
			return mcp.NewToolResultError("no page selected"), nil
		}
	} else {
		var err error
		if page, err = s.svc.ReadPage(ctx, title); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	if strings.EqualFold(format, "markdown") {
		return mcp.NewToolResultText(string(markdown.Export(page.Title, page.Notes))), nil
	}
	return jsonResult(page), nil
}

func (s *Server) createPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.CreatePage(ctx, title); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", title)), nil
}

func (s *Server) deletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeletePage(ctx, title); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", title)), nil
}

func (s *Server) selectPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.SelectPage(ctx, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page), nil
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.AddNote(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page), nil
}

func (s *Server) toggleNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := req.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.svc.ToggleNote(ctx, index)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page), nil
}

type deleteNotesInput struct {
	Indices []int `json:"indices"`
}

func (s *Server) deleteNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[deleteNotesInput](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(input.Indices) == 0 {
		return mcp.NewToolResultError("indices is required"), nil
	}
	page, err := s.svc.DeleteNotes(ctx, input.Indices)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page), nil
}

func (s *Server) save(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Save(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("saved"), nil
}

func (s *Server) getFormatGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatGuide), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatGuide,
		},
	}, nil
}
