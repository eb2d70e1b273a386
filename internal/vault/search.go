package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// excerptContext is the number of characters of context kept on each
// side of the first content match.
const excerptContext = 40

// SearchOptions control a single Search call.
type SearchOptions struct {
	// IncludeTags enables matching against tag names (score 2).
	IncludeTags bool
	// IncludePath enables matching against the relative path and title
	// (score 3).
	IncludePath bool
	// ExcludeFolders adds per-call folder exclusions on top of the
	// engine-wide set.
	ExcludeFolders []string
	// Limit is a soft cap on the result count; 0 means unlimited. The
	// walk stops once the accumulated count reaches Limit, but the note
	// being evaluated still contributes all of its match types, so the
	// final count may exceed Limit by up to two.
	Limit int
}

// Search evaluates query against every eligible note in the vault and
// returns results stable-sorted by score descending (ties keep
// evaluation order). The query compiles as a case-insensitive regular
// expression, so plain strings behave as substring tests; an unparsable
// pattern returns apperr.ErrInvalidParams before any storage access.
// A note may contribute one result per match type: content always, tags
// and title/path when the corresponding option is set.
func (e *Engine) Search(query string, opts SearchOptions) ([]models.SearchResult, error) {
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return nil, fmt.Errorf("%w: bad query pattern: %v", apperr.ErrInvalidParams, err)
	}

	extra := normalizeSegments(opts.ExcludeFolders)
	seen := make(map[string]struct{})
	var results []models.SearchResult

	walkErr := e.walk(extra, func(rel string) error {
		if _, dup := seen[rel]; dup {
			return nil
		}
		seen[rel] = struct{}{}

		note, err := e.LoadNote(strings.TrimSuffix(rel, NoteExt))
		if err != nil {
			// Raced deletions are skipped; real storage failures are
			// fatal for the whole call.
			if errors.Is(err, apperr.ErrNotFound) {
				e.logger.Debug("search: note vanished during walk", slog.String("path", rel))
				return nil
			}
			return err
		}

		if loc := re.FindStringIndex(note.Content); loc != nil {
			results = append(results, models.SearchResult{
				Note:      note,
				MatchType: models.MatchContent,
				Score:     models.ScoreContent,
				Excerpt:   excerpt(note.Content, loc),
			})
		}

		if opts.IncludeTags {
			for _, tag := range note.Metadata.Tags() {
				if re.MatchString(tag) {
					results = append(results, models.SearchResult{
						Note:      note,
						MatchType: models.MatchTag,
						Score:     models.ScoreTag,
					})
					break
				}
			}
		}

		if opts.IncludePath {
			if re.MatchString(note.Path) || re.MatchString(note.Metadata.Title()) {
				results = append(results, models.SearchResult{
					Note:      note,
					MatchType: models.MatchTitle,
					Score:     models.ScoreTitle,
				})
			}
		}

		if opts.Limit > 0 && len(results) >= opts.Limit {
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("vault: search walk: %w", walkErr)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// excerpt returns up to excerptContext characters of context on each
// side of the match, bounded by the content and flanked with ellipsis
// markers.
func excerpt(content string, loc []int) string {
	start := loc[0] - excerptContext
	if start < 0 {
		start = 0
	}
	end := loc[1] + excerptContext
	if end > len(content) {
		end = len(content)
	}
	return "..." + content[start:end] + "..."
}
