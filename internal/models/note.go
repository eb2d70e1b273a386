// Package models defines the domain types for Ansuz.
package models

// Metadata holds a note's frontmatter keys. The recognised keys are
// "title" and "tags"; anything else is preserved verbatim. The loader
// overwrites "created" and "modified" with storage timestamps.
type Metadata map[string]any

// Title returns the "title" key if it is a non-empty string.
func (m Metadata) Title() string {
	if t, ok := m["title"].(string); ok {
		return t
	}
	return ""
}

// Tags returns the "tags" key as a string slice. YAML sequences decode
// as []any, so both forms are accepted; non-string items are dropped.
func (m Metadata) Tags() []string {
	switch v := m["tags"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Links holds a note's link targets. From is reserved for reverse-link
// population and stays empty here (no graph builder in scope).
type Links struct {
	To   []string `json:"to"`
	From []string `json:"from"`
}

// Note represents one loaded vault document. Notes are constructed fresh
// on every load and never mutated afterwards.
type Note struct {
	Path     string   `json:"path"` // vault-relative, extension included
	Name     string   `json:"name"` // filename stem
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Links    Links    `json:"links"`
}

// Match types, in evaluation order.
const (
	MatchContent = "content"
	MatchTag     = "tag"
	MatchTitle   = "title"
)

// Tie-break weights per match type; higher sorts first.
const (
	ScoreContent = 1
	ScoreTag     = 2
	ScoreTitle   = 3
)

// SearchResult is one match produced by the search engine. A single note
// may contribute up to one result per match type.
type SearchResult struct {
	Note      *Note  `json:"note"`
	MatchType string `json:"matchType"`
	Score     int    `json:"score"`
	Excerpt   string `json:"excerpt,omitempty"` // content matches only
}

// TagCount is a per-tag usage count, recomputed on every aggregation.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
