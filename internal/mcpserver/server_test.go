package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/queryservice"
	"github.com/starford/ansuz/internal/remote/confluence"
	"github.com/starford/ansuz/internal/remote/jira"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/vault"
)

// fakeTracker is an in-memory IssueTracker.
type fakeTracker struct {
	issues map[string]*jira.Issue
}

func (f *fakeTracker) GetIssue(_ context.Context, key string) (*jira.Issue, error) {
	if issue, ok := f.issues[key]; ok {
		return issue, nil
	}
	return nil, fmt.Errorf("%w: issue %s", apperr.ErrNotFound, key)
}

func (f *fakeTracker) SearchIssues(_ context.Context, _ string, maxResults int) ([]jira.Issue, error) {
	if maxResults < jira.MinSearchResults || maxResults > jira.MaxSearchResults {
		return nil, fmt.Errorf("%w: maxResults out of range", apperr.ErrInvalidParams)
	}
	var out []jira.Issue
	for _, issue := range f.issues {
		out = append(out, *issue)
	}
	return out, nil
}

func (f *fakeTracker) CreateIssue(_ context.Context, req jira.CreateRequest) (*jira.Issue, error) {
	issue := &jira.Issue{Key: req.Project + "-1", Summary: req.Summary}
	f.issues[issue.Key] = issue
	return issue, nil
}

type fakeWiki struct {
	pages map[string]*confluence.Page
}

func (f *fakeWiki) GetPage(_ context.Context, id string) (*confluence.Page, error) {
	if page, ok := f.pages[id]; ok {
		return page, nil
	}
	return nil, fmt.Errorf("%w: page %s", apperr.ErrNotFound, id)
}

func (f *fakeWiki) CreatePage(_ context.Context, spaceKey, title, body string) (*confluence.Page, error) {
	page := &confluence.Page{ID: "1", SpaceKey: spaceKey, Title: title, Body: body, Version: 1}
	f.pages[page.ID] = page
	return page, nil
}

func testServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	for p, c := range files {
		if err := store.Write(p, []byte(c)); err != nil {
			t.Fatal(err)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := vault.New(store, nil, logger)
	svc := queryservice.New(engine, store, nil)
	tracker := &fakeTracker{issues: map[string]*jira.Issue{
		"PROJ-7": {Key: "PROJ-7", Summary: "Known issue", Status: "Open"},
	}}
	wiki := &fakeWiki{pages: map[string]*confluence.Page{
		"42": {ID: "42", Title: "Runbook", SpaceKey: "OPS"},
	}}
	return New(svc, tracker, wiki)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"search_notes":           srv.searchNotes,
		"get_note":               srv.getNote,
		"list_tags":              srv.listTags,
		"create_note":            srv.createNote,
		"get_note_contract":      srv.getNoteContract,
		"jira_get_issue":         srv.jiraGetIssue,
		"jira_search_issues":     srv.jiraSearchIssues,
		"jira_create_issue":      srv.jiraCreateIssue,
		"confluence_get_page":    srv.confluenceGetPage,
		"confluence_create_page": srv.confluenceCreatePage,
	}
	handler, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchNotes(t *testing.T) {
	srv := testServer(t, map[string]string{
		"note1.md": "---\ntags: [test]\n---\nThis is a test note\n",
	})
	r := callTool(t, srv, "search_notes", map[string]any{"query": "test note"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var results []models.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].Note.Path != "note1.md" {
		t.Errorf("results = %+v", results)
	}
	if !strings.Contains(results[0].Excerpt, "test note") {
		t.Errorf("excerpt = %q", results[0].Excerpt)
	}
}

func TestSearchNotes_MissingQuery(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "search_notes", map[string]any{})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(r), "invalid parameters") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestSearchNotes_BadPattern(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "search_notes", map[string]any{"query": "([boom"})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(r), "invalid parameters") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestGetNote(t *testing.T) {
	srv := testServer(t, map[string]string{
		"note1.md": "---\ntags: [test]\n---\nbody with [[note2]] and [[note3]]\n",
	})
	r := callTool(t, srv, "get_note", map[string]any{"path": "note1"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
	var note models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &note); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if note.Name != "note1" || len(note.Links.To) != 2 {
		t.Errorf("note = %+v", note)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "get_note", map[string]any{"path": "ghost"})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(r), "not found") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestListTags(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a.md":     "---\ntags: [test, example]\n---\nx\n",
		"sub/b.md": "---\ntags: [test]\n---\nx\n",
	})
	r := callTool(t, srv, "list_tags", map[string]any{"minCount": 2})
	var tags []models.TagCount
	if err := json.Unmarshal([]byte(resultText(r)), &tags); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tags) != 1 || tags[0].Tag != "test" || tags[0].Count != 2 {
		t.Errorf("tags = %+v", tags)
	}
}

func TestCreateNote(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "create_note", map[string]any{
		"path":    "fresh.md",
		"content": "---\ntitle: Fresh\n---\nhello\n",
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}

	r = callTool(t, srv, "create_note", map[string]any{
		"path":    "fresh.md",
		"content": "dup",
	})
	if !r.IsError || !strings.Contains(resultText(r), "already exists") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestJiraTools(t *testing.T) {
	srv := testServer(t, nil)

	r := callTool(t, srv, "jira_get_issue", map[string]any{"key": "PROJ-7"})
	var issue jira.Issue
	if err := json.Unmarshal([]byte(resultText(r)), &issue); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if issue.Summary != "Known issue" {
		t.Errorf("issue = %+v", issue)
	}

	r = callTool(t, srv, "jira_search_issues", map[string]any{
		"jql":        "project = PROJ",
		"maxResults": 500,
	})
	if !r.IsError || !strings.Contains(resultText(r), "invalid parameters") {
		t.Errorf("error = %q", resultText(r))
	}

	r = callTool(t, srv, "jira_create_issue", map[string]any{
		"project": "PROJ",
		"summary": "New bug",
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
}

func TestConfluenceTools(t *testing.T) {
	srv := testServer(t, nil)

	r := callTool(t, srv, "confluence_get_page", map[string]any{"id": "42"})
	var page confluence.Page
	if err := json.Unmarshal([]byte(resultText(r)), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Title != "Runbook" {
		t.Errorf("page = %+v", page)
	}

	r = callTool(t, srv, "confluence_get_page", map[string]any{"id": "404"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("error = %q", resultText(r))
	}

	r = callTool(t, srv, "confluence_create_page", map[string]any{
		"spaceKey": "OPS",
		"title":    "New",
		"body":     "<p>x</p>",
	})
	if r.IsError {
		t.Fatalf("unexpected error: %s", resultText(r))
	}
}

func TestNoteContract(t *testing.T) {
	srv := testServer(t, nil)
	r := callTool(t, srv, "get_note_contract", nil)
	if !strings.Contains(resultText(r), "Note Format Contract") {
		t.Error("contract text missing")
	}
}
