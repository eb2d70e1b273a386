// Package vault implements the rescan-per-query search core: walking a
// Markdown vault, loading notes, evaluating queries, and aggregating
// tags. There is no persistent index; every call rescans the tree.
package vault

import (
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// NoteExt is the document extension eligible notes must carry.
const NoteExt = ".md"

// Engine answers queries against a Markdown vault. It holds no state
// between calls, so concurrent invocations never interfere.
type Engine struct {
	store    storage.Provider
	excluded map[string]struct{}
	logger   *slog.Logger
}

// New creates an engine over the given storage. excludeFolders are
// vault-wide folder exclusions applied to every walk; per-call
// exclusions can be added via SearchOptions.
func New(store storage.Provider, excludeFolders []string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		excluded: normalizeSegments(excludeFolders),
		logger:   logger,
	}
}

// normalizeSegments turns raw exclusion entries into a set of clean path
// segments. Exclusion is segment-exact: excluding "test" skips test/ but
// not testing/.
func normalizeSegments(folders []string) map[string]struct{} {
	set := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		f = strings.Trim(strings.TrimSpace(f), "/")
		if f == "" {
			continue
		}
		for _, seg := range strings.Split(f, "/") {
			if seg != "" {
				set[seg] = struct{}{}
			}
		}
	}
	return set
}

// LoadNote reads the note at the vault-relative path (extension omitted)
// and assembles the full record: parsed metadata, trimmed body, outgoing
// links, and storage timestamps. The title defaults to the filename stem
// when the frontmatter does not supply one, so it is never empty.
// Returns apperr.ErrNotFound when the file does not exist; any other
// storage failure propagates.
func (e *Engine) LoadNote(notePath string) (*models.Note, error) {
	rel := notePath + NoteExt
	data, err := e.store.Read(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	res := parser.Parse(data)
	name := path.Base(notePath)

	meta := res.Metadata
	if meta.Title() == "" {
		meta["title"] = name
	}

	info, err := e.store.Stat(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	// File birth time is not portably available; mtime stands in for
	// both keys and supersedes any frontmatter values.
	ts := info.ModTime().UTC().Format(time.RFC3339)
	meta["created"] = ts
	meta["modified"] = ts

	return &models.Note{
		Path:     rel,
		Name:     name,
		Content:  res.Body,
		Metadata: meta,
		Links: models.Links{
			To:   parser.ExtractLinks(res.Body),
			From: []string{},
		},
	}, nil
}

// walk visits every eligible note depth-first, calling fn with the
// note's vault-relative path (extension included). Entries with an
// excluded segment anywhere in their relative path are skipped entirely;
// excluded directories are not descended into. fn may return fs.SkipAll
// to stop the walk early. Directory-read failures are fatal.
func (e *Engine) walk(extra map[string]struct{}, fn func(rel string) error) error {
	return e.store.Walk(func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.isExcluded(rel, extra) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), NoteExt) {
			return nil
		}
		return fn(rel)
	})
}

func (e *Engine) isExcluded(rel string, extra map[string]struct{}) bool {
	for _, seg := range strings.Split(rel, "/") {
		if _, ok := e.excluded[seg]; ok {
			return true
		}
		if _, ok := extra[seg]; ok {
			return true
		}
	}
	return false
}
