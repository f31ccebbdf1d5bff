package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/leafnote/internal/models"
)

const paneWidth = 36

type styles struct {
	title    lipgloss.Style
	pane     lipgloss.Style
	focused  lipgloss.Style
	cursor   lipgloss.Style
	current  lipgloss.Style
	checked  lipgloss.Style
	muted    lipgloss.Style
	warning  lipgloss.Style
	keyHint  lipgloss.Style
	inputBox lipgloss.Style
}

type palette struct {
	fg, muted, accent, border, warn lipgloss.Color
}

var (
	darkPalette  = palette{fg: "252", muted: "240", accent: "86", border: "238", warn: "214"}
	lightPalette = palette{fg: "235", muted: "245", accent: "28", border: "250", warn: "166"}
)

func newStyles(theme models.Theme) styles {
	p := lightPalette
	if theme.IsDarkMode {
		p = darkPalette
	}
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Foreground(p.fg).
		Padding(0, 1).
		Width(paneWidth)
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		pane:     pane,
		focused:  pane.BorderForeground(p.accent),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		current:  lipgloss.NewStyle().Underline(true),
		checked:  lipgloss.NewStyle().Foreground(p.muted).Strikethrough(true),
		muted:    lipgloss.NewStyle().Foreground(p.muted),
		warning:  lipgloss.NewStyle().Foreground(p.warn),
		keyHint:  lipgloss.NewStyle().Foreground(p.muted),
		inputBox: lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(p.accent).Padding(0, 1),
	}
}

func (m *model) View() string {
	st := newStyles(m.ctl.Theme())
	var b strings.Builder

	b.WriteString(st.title.Render("leafnote"))
	b.WriteString(st.muted.Render(fmt.Sprintf("  %s theme", m.ctl.Theme().Name())))
	b.WriteString("\n\n")

	if m.mode == modeHelp {
		writeHelp(&b)
		return b.String()
	}

	pages, notes := st.pane, st.pane
	if m.focus == panePages {
		pages = st.focused
	} else {
		notes = st.focused
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		pages.Render(m.renderPages(st)),
		notes.Render(m.renderNotes(st)),
	))
	b.WriteString("\n")

	switch m.mode {
	case modeNewPage:
		m.writeForm(&b, st, "New page title")
	case modeNewNote:
		m.writeForm(&b, st, "New note")
	case modeConfirmDeletePage:
		b.WriteString(st.warning.Render(fmt.Sprintf("Delete page %q and all its notes? (y/N)", m.pendingDel)))
		b.WriteString("\n")
	case modeConfirmReset:
		b.WriteString(st.warning.Render("Delete ALL pages and notes? (y/N)"))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(st.muted.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(st.keyHint.Render("tab switch | enter open | space toggle | n note | p page | d delete | t theme | ? help | q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *model) renderPages(st styles) string {
	var b strings.Builder
	b.WriteString(st.title.Render("Pages"))
	b.WriteString("\n")
	titles := m.ctl.Titles()
	if len(titles) == 0 {
		b.WriteString(st.muted.Render("No pages yet. Press p."))
		return b.String()
	}
	for i, t := range titles {
		line := t
		if m.ctl.IsCurrentPage(t) {
			line = st.current.Render(t)
		}
		b.WriteString(m.cursorMark(st, panePages, i))
		b.WriteString(line)
		if i < len(titles)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *model) renderNotes(st styles) string {
	var b strings.Builder
	if m.ctl.NoPageSelected() {
		b.WriteString(st.title.Render("Notes"))
		b.WriteString("\n")
		b.WriteString(st.muted.Render("Select a page."))
		return b.String()
	}
	b.WriteString(st.title.Render(m.ctl.CurrentPage()))
	b.WriteString("\n")
	notes := m.ctl.Notes()
	if len(notes) == 0 {
		b.WriteString(st.muted.Render("Empty. Press n."))
		return b.String()
	}
	for i, n := range notes {
		box := "[ ] "
		text := n.Text
		if n.Checked {
			box = "[x] "
			text = st.checked.Render(text)
		}
		mark := "  "
		if m.marked[i] {
			mark = st.warning.Render("* ")
		}
		b.WriteString(m.cursorMark(st, paneNotes, i))
		b.WriteString(mark + box + text)
		if i < len(notes)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *model) cursorMark(st styles, p pane, i int) string {
	cursor := m.pageCursor
	if p == paneNotes {
		cursor = m.noteCursor
	}
	if m.focus == p && cursor == i {
		return st.cursor.Render("> ")
	}
	return "  "
}

func (m *model) writeForm(b *strings.Builder, st styles, label string) {
	b.WriteString(st.inputBox.Render(label + ": " + m.input.Text + "_"))
	b.WriteString("\n")
	if w := m.input.Warning(); w != "" {
		b.WriteString(st.warning.Render(w))
		b.WriteString("\n")
	}
	b.WriteString(st.keyHint.Render("enter save | esc cancel"))
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  tab          Switch between pages and notes\n")
	b.WriteString("  j/k, arrows  Move cursor\n")
	b.WriteString("  enter        Open page\n")
	b.WriteString("  space        Toggle note\n")
	b.WriteString("  x            Mark note for deletion\n")
	b.WriteString("  d            Delete marked notes (or the note under the cursor)\n")
	b.WriteString("  n            New note\n")
	b.WriteString("  p            New page\n")
	b.WriteString("  D            Delete page\n")
	b.WriteString("  t            Toggle dark/light theme\n")
	b.WriteString("  R            Reset all data\n")
	b.WriteString("  ctrl+s       Save now\n")
	b.WriteString("  q, ctrl+c    Save and quit\n\n")
	b.WriteString("Press any key to return.\n")
}
