package vault

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// ListTags walks the whole vault recursively and counts tag usage per
// note, sorted by count descending (ties alphabetical, for determinism).
// Notes without tags contribute nothing. Minimum-count filtering belongs
// to the caller-facing layer, not here.
func (e *Engine) ListTags() ([]models.TagCount, error) {
	counts := make(map[string]int)

	err := e.walk(nil, func(rel string) error {
		note, err := e.LoadNote(strings.TrimSuffix(rel, NoteExt))
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			return err
		}
		for _, tag := range note.Metadata.Tags() {
			counts[tag]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: list tags: %w", err)
	}

	out := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, models.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}
