// Package mcpserver exposes the Ansuz query tools over the Model
// Context Protocol via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/queryservice"
	"github.com/starford/ansuz/internal/remote/confluence"
	"github.com/starford/ansuz/internal/remote/jira"
	"github.com/starford/ansuz/internal/vault"
)

// IssueTracker is the slice of the Jira client the tools need.
// Consumers depend on this interface so tests can substitute a fake.
type IssueTracker interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]jira.Issue, error)
	CreateIssue(ctx context.Context, req jira.CreateRequest) (*jira.Issue, error)
}

// Wiki is the slice of the Confluence client the tools need.
type Wiki interface {
	GetPage(ctx context.Context, id string) (*confluence.Page, error)
	CreatePage(ctx context.Context, spaceKey, title, body string) (*confluence.Page, error)
}

// Server wraps the MCP server with the Ansuz tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *queryservice.Service
	tracker IssueTracker
	wiki    Wiki
}

// New creates an MCP server with the vault tools registered, plus the
// Jira and Confluence tools for whichever clients are non-nil.
func New(svc *queryservice.Service, tracker IssueTracker, wiki Wiki) *Server {
	s := &Server{svc: svc, tracker: tracker, wiki: wiki}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search vault notes. Matches note content by default; "+
			"set includeTags / includePath to also match tag names and paths or titles. "+
			"The query is a case-insensitive pattern, so plain text behaves as a substring search."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithBoolean("includeTags", mcp.Description("Also match tag names")),
		mcp.WithBoolean("includePath", mcp.Description("Also match relative paths and titles")),
		mcp.WithArray("excludeFolders",
			mcp.Description("Folder names to skip (exact path segments)"),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("limit", mcp.Description("Soft cap on the number of results")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Load one note with metadata, links, and timestamps."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path, extension optional (e.g. folder/note)")),
	), s.getNote)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List tag usage counts across the whole vault, most used first."),
		mcp.WithNumber("minCount", mcp.Description("Only return tags used at least this many times")),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note. Content should follow the canonical "+
			"note format (YAML frontmatter with title and optional tags, Markdown body with "+
			"[[wikilinks]]); read it via the get_note_contract tool first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract."),
	), s.getNoteContract)

	if tracker != nil {
		s.mcp.AddTool(mcp.NewTool("jira_get_issue",
			mcp.WithDescription("Fetch a Jira issue by key."),
			mcp.WithString("key", mcp.Required(), mcp.Description("Issue key, e.g. PROJ-123")),
		), s.jiraGetIssue)

		s.mcp.AddTool(mcp.NewTool("jira_search_issues",
			mcp.WithDescription("Search Jira issues with a JQL query."),
			mcp.WithString("jql", mcp.Required(), mcp.Description("JQL query string")),
			mcp.WithNumber("maxResults", mcp.Description(fmt.Sprintf(
				"Page size, %d to %d (default %d)",
				jira.MinSearchResults, jira.MaxSearchResults, jira.DefaultSearchResults))),
		), s.jiraSearchIssues)

		s.mcp.AddTool(mcp.NewTool("jira_create_issue",
			mcp.WithDescription("Create a Jira issue."),
			mcp.WithString("project", mcp.Required(), mcp.Description("Project key")),
			mcp.WithString("summary", mcp.Required(), mcp.Description("Issue summary")),
			mcp.WithString("description", mcp.Description("Issue description")),
			mcp.WithString("issueType", mcp.Description("Issue type name (default Task)")),
		), s.jiraCreateIssue)
	}

	if wiki != nil {
		s.mcp.AddTool(mcp.NewTool("confluence_get_page",
			mcp.WithDescription("Fetch a Confluence page by id, including its body."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Page id")),
		), s.confluenceGetPage)

		s.mcp.AddTool(mcp.NewTool("confluence_create_page",
			mcp.WithDescription("Create a Confluence page in a space."),
			mcp.WithString("spaceKey", mcp.Required(), mcp.Description("Space key")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Page title")),
			mcp.WithString("body", mcp.Required(), mcp.Description("Page body in storage format")),
		), s.confluenceCreatePage)
	}

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format for vault notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio runs the server on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Listen runs the stdio transport until ctx is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return invalidParams(err), nil
	}
	args := req.GetArguments()
	opts := vault.SearchOptions{
		IncludeTags:    cast.ToBool(args["includeTags"]),
		IncludePath:    cast.ToBool(args["includePath"]),
		ExcludeFolders: cast.ToStringSlice(args["excludeFolders"]),
		Limit:          cast.ToInt(args["limit"]),
	}
	results, err := s.svc.Search(ctx, query, opts)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(results)
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return invalidParams(err), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(note)
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minCount := cast.ToInt(req.GetArguments()["minCount"])
	tags, err := s.svc.ListTags(ctx, minCount)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(tags)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return invalidParams(err), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return invalidParams(err), nil
	}
	note, err := s.svc.CreateNote(ctx, path, []byte(content))
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(note)
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) jiraGetIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return invalidParams(err), nil
	}
	issue, err := s.tracker.GetIssue(ctx, key)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(issue)
}

func (s *Server) jiraSearchIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jql, err := req.RequireString("jql")
	if err != nil {
		return invalidParams(err), nil
	}
	maxResults := jira.DefaultSearchResults
	if v, ok := req.GetArguments()["maxResults"]; ok {
		maxResults = cast.ToInt(v)
	}
	issues, err := s.tracker.SearchIssues(ctx, jql, maxResults)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(issues)
}

func (s *Server) jiraCreateIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return invalidParams(err), nil
	}
	summary, err := req.RequireString("summary")
	if err != nil {
		return invalidParams(err), nil
	}
	args := req.GetArguments()
	issue, err := s.tracker.CreateIssue(ctx, jira.CreateRequest{
		Project:     project,
		Summary:     summary,
		Description: cast.ToString(args["description"]),
		IssueType:   cast.ToString(args["issueType"]),
	})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(issue)
}

func (s *Server) confluenceGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return invalidParams(err), nil
	}
	page, err := s.wiki.GetPage(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(page)
}

func (s *Server) confluenceCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	spaceKey, err := req.RequireString("spaceKey")
	if err != nil {
		return invalidParams(err), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return invalidParams(err), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return invalidParams(err), nil
	}
	page, err := s.wiki.CreatePage(ctx, spaceKey, title, body)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(page)
}

// invalidParams reports a missing or malformed argument, caught before
// any storage access.
func invalidParams(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err))
}

// errResult maps domain errors onto the tool error taxonomy; anything
// unrecognised is an internal error carrying the underlying message.
func errResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrInvalidParams),
		errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError(fmt.Sprintf("internal error: %v", err))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("internal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
