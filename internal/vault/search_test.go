package vault

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// scenarioEngine mirrors the canonical two-note vault used across the
// query tests.
func scenarioEngine(t *testing.T) *Engine {
	t.Helper()
	return testEngine(t, map[string]string{
		"note1.md":           "---\ntags: [test, example, documentation]\n---\nThis is a test note with [[note2]] and [[note3]].\n",
		"subfolder/note3.md": "---\ntags: [test, archived]\n---\nArchived content.\n",
	})
}

func TestSearch_ContentMatchWithExcerpt(t *testing.T) {
	e := scenarioEngine(t)
	results, err := e.Search("test note", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	r := results[0]
	if r.Note.Path != "note1.md" || r.MatchType != models.MatchContent || r.Score != models.ScoreContent {
		t.Errorf("result = %+v", r)
	}
	if !strings.Contains(r.Excerpt, "test note") {
		t.Errorf("excerpt = %q, want it to contain the match", r.Excerpt)
	}
	if !strings.HasPrefix(r.Excerpt, "...") || !strings.HasSuffix(r.Excerpt, "...") {
		t.Errorf("excerpt = %q, want ellipsis markers", r.Excerpt)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	e := scenarioEngine(t)
	results, err := e.Search("TEST NOTE", SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
}

func TestSearch_ExcludeFolders(t *testing.T) {
	e := scenarioEngine(t)
	results, err := e.Search("test", SearchOptions{
		IncludeTags:    true,
		ExcludeFolders: []string{"subfolder"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if strings.HasPrefix(r.Note.Path, "subfolder/") {
			t.Errorf("excluded path leaked into results: %s", r.Note.Path)
		}
	}
}

func TestSearch_SegmentExactExclusion(t *testing.T) {
	e := testEngine(t, map[string]string{
		"test/a.md":    "needle",
		"testing/b.md": "needle",
	})
	results, err := e.Search("needle", SearchOptions{ExcludeFolders: []string{"test"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Excluding "test" must not exclude "testing/".
	if len(results) != 1 || results[0].Note.Path != "testing/b.md" {
		t.Errorf("results = %+v, want only testing/b.md", results)
	}
}

func TestSearch_TagAndTitleScoring(t *testing.T) {
	e := scenarioEngine(t)
	results, err := e.Search("test", SearchOptions{IncludeTags: true, IncludePath: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// note1 matches content + tag, note3 matches tag only; no title hits.
	byType := map[string]int{}
	for _, r := range results {
		byType[r.MatchType]++
	}
	if byType[models.MatchContent] != 1 || byType[models.MatchTag] != 2 {
		t.Errorf("match counts = %v", byType)
	}

	// Non-increasing by score.
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by score: %d after %d",
				results[i].Score, results[i-1].Score)
		}
	}
}

func TestSearch_TitleMatchesPathOrTitle(t *testing.T) {
	e := testEngine(t, map[string]string{
		"meetings/standup.md": "---\ntitle: Weekly sync\n---\nnothing relevant\n",
	})

	results, err := e.Search("standup", SearchOptions{IncludePath: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].MatchType != models.MatchTitle || results[0].Score != models.ScoreTitle {
		t.Fatalf("results = %+v, want one title match", results)
	}
	if results[0].Excerpt != "" {
		t.Errorf("excerpt = %q, want empty for title match", results[0].Excerpt)
	}

	results, err = e.Search("weekly sync", SearchOptions{IncludePath: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].MatchType != models.MatchTitle {
		t.Errorf("results = %+v, want one title match via frontmatter title", results)
	}
}

func TestSearch_SoftLimitOvershoot(t *testing.T) {
	// Each note matches content and tag; limit 3 is reached mid-note, so
	// the in-progress note still contributes both results (soft cap).
	e := testEngine(t, map[string]string{
		"a.md": "---\ntags: [needle]\n---\nneedle body\n",
		"b.md": "---\ntags: [needle]\n---\nneedle body\n",
		"c.md": "---\ntags: [needle]\n---\nneedle body\n",
		"d.md": "---\ntags: [needle]\n---\nneedle body\n",
	})
	results, err := e.Search("needle", SearchOptions{IncludeTags: true, Limit: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("len(results) = %d, want 4 (limit 3 + overshoot within a note)", len(results))
	}
}

func TestSearch_InvalidPattern(t *testing.T) {
	e := scenarioEngine(t)
	_, err := e.Search("([unclosed", SearchOptions{})
	if !errors.Is(err, apperr.ErrInvalidParams) {
		t.Errorf("err = %v, want ErrInvalidParams", err)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	e := scenarioEngine(t)
	first, err := e.Search("test", SearchOptions{IncludeTags: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := e.Search("test", SearchOptions{IncludeTags: true})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Note.Path != second[i].Note.Path || first[i].MatchType != second[i].MatchType {
			t.Errorf("result %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestExcerptBounds(t *testing.T) {
	content := "short"
	got := excerpt(content, []int{0, 5})
	if got != "...short..." {
		t.Errorf("excerpt = %q", got)
	}

	long := strings.Repeat("x", 100) + "needle" + strings.Repeat("y", 100)
	got = excerpt(long, []int{100, 106})
	want := "..." + strings.Repeat("x", 40) + "needle" + strings.Repeat("y", 40) + "..."
	if got != want {
		t.Errorf("excerpt = %q, want %q", got, want)
	}
}
