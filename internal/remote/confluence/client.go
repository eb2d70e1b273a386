// Package confluence is a thin client over the Confluence Cloud content
// REST API: fetch page by id and create page, nothing more.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// Config holds Confluence Cloud connection settings. BaseURL should
// include the /wiki context path for cloud sites.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
}

// Client talks to the Confluence content API.
type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

// New creates a Confluence client authenticated with basic auth.
func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		email:   cfg.Email,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Page is the reduced representation returned to tool callers.
type Page struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SpaceKey string `json:"spaceKey,omitempty"`
	Version  int    `json:"version,omitempty"`
	Body     string `json:"body,omitempty"` // storage-format markup
}

// contentPayload mirrors the slice of the content API response we keep.
type contentPayload struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

// GetPage fetches one page by id, expanded with body, version, and
// space.
func (c *Client) GetPage(ctx context.Context, id string) (*Page, error) {
	url := fmt.Sprintf("%s/rest/api/content/%s?expand=body.storage,version,space", c.baseURL, id)
	var payload contentPayload
	if err := c.do(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return nil, err
	}
	return reduce(&payload), nil
}

// CreatePage creates a page in the given space with storage-format body
// markup.
func (c *Client) CreatePage(ctx context.Context, spaceKey, title, body string) (*Page, error) {
	reqBody := map[string]any{
		"type":  "page",
		"title": title,
		"space": map[string]any{"key": spaceKey},
		"body": map[string]any{
			"storage": map[string]any{
				"value":          body,
				"representation": "storage",
			},
		},
	}
	var payload contentPayload
	url := c.baseURL + "/rest/api/content"
	if err := c.do(ctx, http.MethodPost, url, reqBody, &payload); err != nil {
		return nil, err
	}
	page := reduce(&payload)
	if page.SpaceKey == "" {
		page.SpaceKey = spaceKey
	}
	return page, nil
}

func (c *Client) do(ctx context.Context, method, url string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("confluence: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("confluence: new request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("confluence: %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("confluence: %s %s: status %d: %s",
			method, url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("confluence: decode response: %w", err)
	}
	return nil
}

func reduce(p *contentPayload) *Page {
	return &Page{
		ID:       p.ID,
		Title:    p.Title,
		SpaceKey: p.Space.Key,
		Version:  p.Version.Number,
		Body:     p.Body.Storage.Value,
	}
}
