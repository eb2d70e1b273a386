package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating notes.
const NoteFormatContract = `# Ansuz Note Format Contract

Every Markdown note stored in the vault SHOULD follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # used in search and title matching
tags:                               # OPTIONAL - YAML list; used for tag search and counts
  - tag-one
  - tag-two
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
Inline links to vault files also count: [label](folder/note.md).
` + "```" + `

## Rules

1. **Frontmatter fences** are lines of exactly three hyphens and must be
   the first thing in the file.
2. **` + "`" + `title` + "`" + `** falls back to the filename stem when absent, so short
   notes may omit the frontmatter block entirely.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target is the
   filename stem (no ` + "`" + `.md` + "`" + ` extension, path separators OK: ` + "`" + `[[folder/note]]` + "`" + `).
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **` + "`" + `created` + "`" + ` / ` + "`" + `modified` + "`" + `** are overwritten from file timestamps on
   every read; do not rely on hand-written values.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.

## Action items

- [[alice]] to review the [[design-doc]]
- Bob to update [[project-x/roadmap|the roadmap]]
` + "```" + `
`
