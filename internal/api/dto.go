package api

import "github.com/starford/ansuz/internal/models"

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
}

// TagsResponse wraps tag counts.
type TagsResponse struct {
	Tags []models.TagCount `json:"tags"`
}
