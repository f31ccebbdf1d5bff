package mcpserver

// FormatGuide describes how leafnote organizes data so LLM consumers can
// drive the tools without guessing.
const FormatGuide = `# leafnote data model

leafnote keeps a library of pages. Each page has a unique, non-empty title
and an ordered list of notes. A note is a line of text with a checkbox.

## Rules

1. **One active page.** Note tools (` + "`add_note`, `toggle_note`, `delete_notes`" + `)
   act on the active page. Call ` + "`select_page`" + ` first.
2. **Indices are zero-based** and refer to the order returned by ` + "`read_page`" + `.
3. **Deleting several notes** takes all indices in one call. They are applied
   highest first, so earlier positions do not shift.
4. **Titles are exact.** No trimming or case folding is applied.
5. Changes are kept in memory and written on ` + "`save`" + ` and when the server exits.

## Page JSON

` + "```" + `json
{"list": [{"text": "buy milk", "is_checked": false}]}
` + "```" + `

## Markdown export

` + "```" + `markdown
# Work

- [ ] buy milk
- [x] call Bob
` + "```" + `
`
