// Package queryservice is the caller-facing layer over the vault engine.
// It applies defaults and filters that the tool surface promises (such
// as the minimum tag count) and fronts the engine with the optional
// read-through cache.
package queryservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/vault"
)

// Service coordinates the vault engine, storage, and cache.
type Service struct {
	engine *vault.Engine
	store  storage.Provider
	cache  *cache.Cache // nil when caching is disabled
}

// New creates a query service. c may be nil to disable caching.
func New(engine *vault.Engine, store storage.Provider, c *cache.Cache) *Service {
	return &Service{engine: engine, store: store, cache: c}
}

type searchKey struct {
	Query string              `json:"query"`
	Opts  vault.SearchOptions `json:"opts"`
}

// Search runs a vault search, read-through cached.
func (s *Service) Search(_ context.Context, query string, opts vault.SearchOptions) ([]models.SearchResult, error) {
	key := cache.Key("search_notes", searchKey{Query: query, Opts: opts})
	if v, ok := s.cache.Get(key); ok {
		return v.([]models.SearchResult), nil
	}
	results, err := s.engine.Search(query, opts)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, results)
	return results, nil
}

// GetNote loads a single note by its vault-relative path (extension
// optional), read-through cached.
func (s *Service) GetNote(_ context.Context, path string) (*models.Note, error) {
	path = strings.TrimSuffix(path, vault.NoteExt)
	key := cache.Key("get_note", path)
	if v, ok := s.cache.Get(key); ok {
		return v.(*models.Note), nil
	}
	note, err := s.engine.LoadNote(path)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, note)
	return note, nil
}

// ListTags aggregates tag counts over the whole vault and applies the
// caller-facing minimum-count filter. The unfiltered aggregation is what
// gets cached, so different minCount values share one vault scan.
func (s *Service) ListTags(_ context.Context, minCount int) ([]models.TagCount, error) {
	key := cache.Key("list_tags", nil)
	var tags []models.TagCount
	if v, ok := s.cache.Get(key); ok {
		tags = v.([]models.TagCount)
	} else {
		var err error
		tags, err = s.engine.ListTags()
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, tags)
	}

	if minCount <= 1 {
		return tags, nil
	}
	filtered := make([]models.TagCount, 0, len(tags))
	for _, tc := range tags {
		if tc.Count >= minCount {
			filtered = append(filtered, tc)
		}
	}
	return filtered, nil
}

// CreateNote writes a new note and flushes the cache. The path must end
// with the note extension; an existing note is an ErrAlreadyExists.
func (s *Service) CreateNote(ctx context.Context, path string, content []byte) (*models.Note, error) {
	if !strings.HasSuffix(path, vault.NoteExt) {
		return nil, fmt.Errorf("%w: path must end with %s", apperr.ErrInvalidParams, vault.NoteExt)
	}
	if _, err := s.store.Read(path); err == nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrAlreadyExists, path)
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return s.GetNote(ctx, path)
}
