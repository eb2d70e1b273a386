// Package jira is a thin client over the Jira Cloud REST API: it
// forwards requests and responses and holds no local state. Timeouts
// and request serialization are the underlying HTTP client's concern.
package jira

import (
	"context"
	"fmt"
	"net/http"

	gojira "github.com/andygrunwald/go-jira"

	"github.com/starford/ansuz/internal/apperr"
)

// Bounds for the search bulk-size parameter.
const (
	MinSearchResults = 1
	MaxSearchResults = 100

	// DefaultSearchResults is used when the caller does not pass a
	// bulk size.
	DefaultSearchResults = 25
)

// Config holds Jira Cloud connection settings.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
}

// Client wraps the Jira Cloud API for issue lookup, search, and
// creation.
type Client struct {
	api *gojira.Client
}

// New creates a Jira client authenticated with basic auth (email + API
// token, the Jira Cloud scheme).
func New(cfg Config) (*Client, error) {
	tp := gojira.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.APIToken,
	}
	api, err := gojira.NewClient(tp.Client(), cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("jira: new client: %w", err)
	}
	return &Client{api: api}, nil
}

// Issue is the reduced representation returned to tool callers.
type Issue struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Status      string `json:"status,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateRequest describes a new issue.
type CreateRequest struct {
	Project     string
	Summary     string
	Description string
	IssueType   string // defaults to "Task"
}

// GetIssue fetches one issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	issue, resp, err := c.api.Issue.GetWithContext(ctx, key, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: issue %s", apperr.ErrNotFound, key)
		}
		return nil, fmt.Errorf("jira: get issue %s: %w", key, err)
	}
	return reduce(issue), nil
}

// SearchIssues runs a JQL query. maxResults must be within
// [MinSearchResults, MaxSearchResults]; out-of-range values are an
// ErrInvalidParams before any request is made.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	if maxResults < MinSearchResults || maxResults > MaxSearchResults {
		return nil, fmt.Errorf("%w: maxResults must be between %d and %d, got %d",
			apperr.ErrInvalidParams, MinSearchResults, MaxSearchResults, maxResults)
	}
	issues, _, err := c.api.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("jira: search: %w", err)
	}
	out := make([]Issue, len(issues))
	for i := range issues {
		out[i] = *reduce(&issues[i])
	}
	return out, nil
}

// CreateIssue creates a new issue and returns its reduced form.
func (c *Client) CreateIssue(ctx context.Context, req CreateRequest) (*Issue, error) {
	issueType := req.IssueType
	if issueType == "" {
		issueType = "Task"
	}
	created, _, err := c.api.Issue.CreateWithContext(ctx, &gojira.Issue{
		Fields: &gojira.IssueFields{
			Project:     gojira.Project{Key: req.Project},
			Summary:     req.Summary,
			Description: req.Description,
			Type:        gojira.IssueType{Name: issueType},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jira: create issue: %w", err)
	}
	// The create response carries only key and self; echo the request
	// fields back instead of a second round-trip.
	return &Issue{
		Key:         created.Key,
		Summary:     req.Summary,
		Description: req.Description,
	}, nil
}

func reduce(issue *gojira.Issue) *Issue {
	out := &Issue{Key: issue.Key}
	if issue.Fields == nil {
		return out
	}
	out.Summary = issue.Fields.Summary
	out.Description = issue.Fields.Description
	if issue.Fields.Status != nil {
		out.Status = issue.Fields.Status.Name
	}
	if issue.Fields.Assignee != nil {
		out.Assignee = issue.Fields.Assignee.DisplayName
	}
	return out
}
