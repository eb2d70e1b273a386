// Package parser extracts frontmatter and internal links from Markdown
// content.
package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/models"
)

var (
	// Frontmatter is a leading block delimited by lines of exactly three
	// hyphens. Lazy so the first closing line wins.
	frontmatterRe = regexp.MustCompile(`(?s)\A---\r?\n(.*?)\r?\n---(?:\r?\n|\z)`)

	// Lazy quantifier; "." does not cross newlines, so unrelated links on
	// separate lines never merge.
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	inlineRe   = regexp.MustCompile(`\[[^\]]*\]\(([^()\s]+?)\.md\)`)
)

// Result holds the output of parsing one Markdown document.
type Result struct {
	Metadata models.Metadata
	Body     string
}

// Parse splits data into frontmatter metadata and body text. When the
// frontmatter block is absent, the whole input is body and the metadata
// is the empty-title default for the caller to fill from the filename.
// When the block is present but its YAML does not parse, the failure is
// logged and the original unsplit text (delimiters included) is kept as
// body with the same default metadata.
func Parse(data []byte) Result {
	meta, body := splitFrontmatter(data)
	if meta == nil {
		meta = models.Metadata{"title": ""}
	}
	return Result{Metadata: meta, Body: strings.TrimSpace(body)}
}

func splitFrontmatter(data []byte) (models.Metadata, string) {
	m := frontmatterRe.FindSubmatchIndex(data)
	if m == nil {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(data[m[2]:m[3]], &fm); err != nil {
		slog.Warn("parser: invalid frontmatter, keeping raw body",
			slog.String("error", err.Error()))
		return nil, string(data)
	}
	if fm == nil {
		// Empty block, e.g. "---\n\n---".
		fm = map[string]any{}
	}
	return models.Metadata(fm), string(data[m[1]:])
}

// ExtractLinks returns the deduplicated internal link targets found in
// body: [[Target]] / [[Target|Alias]] wikilinks plus inline
// [Label](path/to/target.md) links with the .md suffix stripped.
// Frontmatter must already be removed by the caller.
func ExtractLinks(body string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(target string) {
		target = strings.TrimSpace(target)
		if target == "" {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}

	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		add(target)
	}

	for _, m := range inlineRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}

	return out
}
