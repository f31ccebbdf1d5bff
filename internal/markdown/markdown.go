// Package markdown converts pages to and from GitHub-flavoured Markdown
// task lists.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/starford/leafnote/internal/models"
)

var md = goldmark.New(goldmark.WithExtensions(extension.TaskList))

// Result holds a page parsed from Markdown.
type Result struct {
	Title string
	Page  models.Page
}

// Export renders notes as a task list, headed by title when it is set.
// Note text is written verbatim, so Parse returns it unchanged; line breaks
// and runs of whitespace are folded to single spaces.
func Export(title string, notes []models.Note) []byte {
	var buf bytes.Buffer
	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	for _, n := range notes {
		box := " "
		if n.Checked {
			box = "x"
		}
		fmt.Fprintf(&buf, "- [%s] %s\n", box, strings.Join(strings.Fields(n.Text), " "))
	}
	return buf.Bytes()
}

// Parse reads a Markdown document into a page. Every list item becomes a
// note; task items keep their checkbox state and plain items are unchecked.
// The title is the frontmatter "title", else the first H1, else empty.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	src := []byte(body)
	doc := md.Parser().Parse(text.NewReader(src))

	res := &Result{Page: models.Page{Notes: []models.Note{}}}
	if t, ok := fm["title"].(string); ok {
		res.Title = strings.TrimSpace(t)
	}

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if res.Title == "" && node.Level == 1 {
				res.Title = sourceText(node, src)
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			if note, ok := listItemNote(node, src); ok {
				res.Page.Notes = append(res.Page.Notes, note)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}
	return res, nil
}

// listItemNote takes the source text of the item's first block. Nested
// lists are visited separately by the walker.
func listItemNote(item *ast.ListItem, src []byte) (models.Note, bool) {
	first := item.FirstChild()
	if first == nil {
		return models.Note{}, false
	}
	if _, isList := first.(*ast.List); isList {
		return models.Note{}, false
	}
	var note models.Note
	raw := sourceText(first, src)
	for c := first.FirstChild(); c != nil; c = c.NextSibling() {
		if box, ok := c.(*east.TaskCheckBox); ok {
			note.Checked = box.IsChecked
			raw = checkBox.ReplaceAllString(raw, "")
			break
		}
	}
	note.Text = strings.TrimSpace(raw)
	if note.Text == "" {
		return models.Note{}, false
	}
	return note, true
}

var checkBox = regexp.MustCompile(`^\[[ xX]\]\s*`)

// sourceText joins the block's source lines with single spaces. Inline
// markup, entities and HTML are kept as written.
func sourceText(n ast.Node, src []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if line := strings.TrimSpace(string(seg.Value(src))); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. Missing or invalid frontmatter leaves the whole input as body.
func splitFrontmatter(data []byte) (map[string]interface{}, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]interface{}
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}
