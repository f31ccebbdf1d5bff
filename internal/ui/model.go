package ui

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/controller"
)

type pane int

const (
	panePages pane = iota
	paneNotes
)

type mode int

const (
	modeBrowse mode = iota
	modeNewPage
	modeNewNote
	modeConfirmDeletePage
	modeConfirmReset
	modeHelp
)

type autosaveMsg time.Time

type model struct {
	ctx      context.Context
	ctl      *controller.Controller
	logger   *slog.Logger
	autosave time.Duration

	focus      pane
	mode       mode
	pageCursor int
	noteCursor int
	marked     map[int]bool
	input      controller.PendingInput
	pendingDel string

	status      string
	shutdownErr error
	width       int
}

func newModel(ctx context.Context, ctl *controller.Controller, c *tuiConfig) *model {
	m := &model{
		ctx:      ctx,
		ctl:      ctl,
		logger:   c.logger,
		autosave: c.autosave,
		marked:   map[int]bool{},
	}
	if cur := ctl.CurrentPage(); cur != "" {
		for i, t := range ctl.Titles() {
			if t == cur {
				m.pageCursor = i
			}
		}
		m.focus = paneNotes
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return autosaveCmd(m.autosave)
}

func autosaveCmd(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return autosaveMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case autosaveMsg:
		if m.ctl.Dirty() {
			m.save("autosaved")
		}
		return m, autosaveCmd(m.autosave)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		switch m.mode {
		case modeNewPage, modeNewNote:
			return m.updateInput(msg)
		case modeConfirmDeletePage, modeConfirmReset:
			return m.updateConfirm(msg)
		case modeHelp:
			m.mode = modeBrowse
			return m, nil
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *model) quit() (tea.Model, tea.Cmd) {
	m.shutdownErr = m.ctl.Shutdown(m.ctx)
	return m, tea.Quit
}

func (m *model) save(okStatus string) {
	if err := m.ctl.Save(m.ctx); err != nil {
		m.logger.Warn("tui save failed", slog.String("error", err.Error()))
		m.status = "Save failed: " + err.Error()
		return
	}
	m.status = okStatus
}

func (m *model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q":
		return m.quit()
	case "?", "h":
		m.mode = modeHelp
	case "tab":
		if m.focus == panePages {
			m.focus = paneNotes
		} else {
			m.focus = panePages
		}
	case "j", "down":
		m.move(1)
	case "k", "up":
		m.move(-1)
	case "enter":
		if m.focus == panePages {
			m.selectAtCursor()
		}
	case " ":
		if m.focus == paneNotes {
			m.toggleAtCursor()
		}
	case "x":
		if m.focus == paneNotes && m.noteCursor < len(m.ctl.Notes()) {
			if m.marked[m.noteCursor] {
				delete(m.marked, m.noteCursor)
			} else {
				m.marked[m.noteCursor] = true
			}
		}
	case "d":
		if m.focus == paneNotes {
			m.deleteNotes()
		}
	case "D":
		titles := m.ctl.Titles()
		if m.focus == panePages && m.pageCursor < len(titles) {
			m.pendingDel = titles[m.pageCursor]
			m.mode = modeConfirmDeletePage
		}
	case "p":
		m.input.Reset()
		m.mode = modeNewPage
	case "n":
		m.input.Reset()
		m.mode = modeNewNote
	case "t":
		theme := m.ctl.ToggleTheme()
		m.status = "Theme: " + theme.Name()
	case "R":
		m.mode = modeConfirmReset
	case "ctrl+s":
		m.save("Saved")
	}
	return m, nil
}

func (m *model) move(delta int) {
	if m.focus == panePages {
		m.pageCursor = clamp(m.pageCursor+delta, len(m.ctl.Titles()))
		return
	}
	m.noteCursor = clamp(m.noteCursor+delta, len(m.ctl.Notes()))
}

func clamp(v, n int) int {
	if n == 0 || v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func (m *model) selectAtCursor() {
	titles := m.ctl.Titles()
	if m.pageCursor >= len(titles) {
		return
	}
	if err := m.ctl.SelectPage(titles[m.pageCursor]); err != nil {
		m.status = "Warning: " + err.Error()
	}
	m.noteCursor = 0
	m.marked = map[int]bool{}
	m.focus = paneNotes
}

func (m *model) toggleAtCursor() {
	if err := m.ctl.ToggleNote(m.noteCursor); err != nil && !errors.Is(err, apperr.ErrNoteIndex) {
		m.status = "Warning: " + err.Error()
	}
}

// deleteNotes removes every marked note in one call, or the note under the
// cursor when nothing is marked.
func (m *model) deleteNotes() {
	indices := make([]int, 0, len(m.marked))
	for i := range m.marked {
		indices = append(indices, i)
	}
	if len(indices) == 0 {
		if m.noteCursor >= len(m.ctl.Notes()) {
			return
		}
		indices = append(indices, m.noteCursor)
	}
	sort.Ints(indices)
	if err := m.ctl.DeleteNotes(indices...); err != nil {
		m.status = "Warning: " + err.Error()
		return
	}
	m.marked = map[int]bool{}
	m.noteCursor = clamp(m.noteCursor, len(m.ctl.Notes()))
}

func (m *model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Reset()
		m.mode = modeBrowse
	case tea.KeyEnter:
		var ok bool
		if m.mode == modeNewPage {
			ok = m.input.Submit(m.ctl.AddPage)
		} else {
			ok = m.input.Submit(m.ctl.AddNote)
		}
		if ok {
			if m.mode == modeNewNote {
				m.noteCursor = len(m.ctl.Notes()) - 1
			}
			m.mode = modeBrowse
		}
	case tea.KeyBackspace:
		if r := []rune(m.input.Text); len(r) > 0 {
			m.input.Text = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input.Text += " "
	case tea.KeyRunes:
		m.input.Text += string(msg.Runes)
	}
	return m, nil
}

func (m *model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	confirmed := msg.String() == "y" || msg.String() == "Y"
	switch {
	case confirmed && m.mode == modeConfirmDeletePage:
		if err := m.ctl.DeletePage(m.pendingDel); err != nil {
			m.status = "Warning: " + err.Error()
		} else {
			m.status = "Deleted " + m.pendingDel
		}
		m.pageCursor = clamp(m.pageCursor, len(m.ctl.Titles()))
		m.marked = map[int]bool{}
	case confirmed && m.mode == modeConfirmReset:
		m.ctl.ResetAll()
		m.pageCursor, m.noteCursor = 0, 0
		m.marked = map[int]bool{}
		m.focus = panePages
		m.status = "All data reset"
	}
	m.pendingDel = ""
	m.mode = modeBrowse
	return m, nil
}
