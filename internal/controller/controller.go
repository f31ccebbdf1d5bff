// Package controller orchestrates leafnote: it loads persisted state on
// startup, applies user commands to the notebook, and writes state back on
// save events and shutdown.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/models"
	"github.com/starford/leafnote/internal/notebook"
	"github.com/starford/leafnote/internal/persist"
)

// Controller is the single owner of the in-memory library, the active page
// and the theme. It is not safe for concurrent use; front ends that serve
// several callers must serialize access.
type Controller struct {
	gw     *persist.Gateway
	logger *slog.Logger
	book   *notebook.Notebook
	theme  models.Theme
	dirty  bool

	// loadErr is set when the stored library could not be read. Saves are
	// refused so the unread data is never overwritten.
	loadErr error
}

// New creates a controller over gw. Call Start before issuing commands.
func New(gw *persist.Gateway, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		gw:     gw,
		logger: logger,
		book:   notebook.New(),
		theme:  models.DefaultTheme(),
	}
}

// Start loads the theme, then the library, then materializes the current
// page. Missing or undecodable data is logged and replaced by defaults. A
// storage read failure is returned; the controller then runs on an empty
// library but refuses to save over the stored one.
func (c *Controller) Start(ctx context.Context) error {
	theme, err := c.gw.LoadTheme()
	if err != nil {
		c.logger.Warn("theme load failed, using default",
			slog.String("path", c.gw.ThemePath()),
			slog.String("error", err.Error()))
	}
	c.theme = theme

	c.loadErr = nil
	lib, err := c.gw.LoadLibrary(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrInvalidPersistedData):
		c.logger.Warn("library unreadable, starting empty", slog.String("error", err.Error()))
	default:
		c.logger.Error("library read failed, saves disabled", slog.String("error", err.Error()))
		c.loadErr = err
	}

	book, err := notebook.Load(lib)
	if err != nil {
		c.logger.Warn("current page unreadable, showing it empty",
			slog.String("page", book.CurrentPage()),
			slog.String("error", err.Error()))
	}
	c.book = book
	c.dirty = false

	c.logger.Info("state loaded",
		slog.Int("pages", len(book.Titles())),
		slog.String("current_page", book.CurrentPage()),
		slog.String("theme", c.theme.Name()))
	return c.loadErr
}

// Save persists the library. A failure is logged and returned; it is never
// fatal and the in-memory state is kept.
func (c *Controller) Save(ctx context.Context) error {
	if c.loadErr != nil {
		return fmt.Errorf("%w: stored library was not read: %v", apperr.ErrBackendWrite, c.loadErr)
	}
	if err := c.book.Commit(); err != nil {
		c.logger.Error("commit before save failed", slog.String("error", err.Error()))
		return err
	}
	if err := c.gw.SaveLibrary(ctx, c.book.Library()); err != nil {
		c.logger.Error("library save failed", slog.String("error", err.Error()))
		return err
	}
	c.dirty = false
	c.logger.Debug("library saved", slog.Int("pages", len(c.book.Titles())))
	return nil
}

// Shutdown commits the active page and persists library and theme. Errors
// are logged and joined in the result, but both writes are always tried.
func (c *Controller) Shutdown(ctx context.Context) error {
	libErr := c.Save(ctx)
	themeErr := c.gw.SaveTheme(c.theme)
	if themeErr != nil {
		c.logger.Error("theme save failed",
			slog.String("path", c.gw.ThemePath()),
			slog.String("error", themeErr.Error()))
	}
	return errors.Join(libErr, themeErr)
}

// Dirty reports whether the library changed since the last successful save.
func (c *Controller) Dirty() bool { return c.dirty }

// Theme returns the current theme.
func (c *Controller) Theme() models.Theme { return c.theme }

// Titles returns all page titles in lexical order.
func (c *Controller) Titles() []string { return c.book.Titles() }

// CurrentPage returns the active page title, or "".
func (c *Controller) CurrentPage() string { return c.book.CurrentPage() }

// NoPageSelected reports whether no page is active.
func (c *Controller) NoPageSelected() bool { return c.book.NoPageSelected() }

// IsCurrentPage reports whether title is the active page.
func (c *Controller) IsCurrentPage(title string) bool { return c.book.IsCurrent(title) }

// Notes returns the notes on the active page.
func (c *Controller) Notes() []models.Note { return c.book.Notes() }

// Library returns a copy of the library index.
func (c *Controller) Library() models.Library { return c.book.Library() }

// PageNotes decodes the notes of any page without selecting it.
func (c *Controller) PageNotes(title string) ([]models.Note, error) {
	if c.book.IsCurrent(title) {
		return c.book.Notes(), nil
	}
	lib := c.book.Library()
	blob, ok := lib.Pages[title]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperr.ErrPageNotFound, title)
	}
	p, err := models.DecodePage(blob)
	if err != nil {
		return nil, err
	}
	return p.Notes, nil
}

// AddPage creates an empty page.
func (c *Controller) AddPage(title string) error {
	if err := c.book.NewPage(title); err != nil {
		return err
	}
	c.touch("page added", slog.String("page", title))
	return nil
}

// ImportPage creates a page holding p, e.g. from a legacy or Markdown file.
func (c *Controller) ImportPage(title string, p models.Page) error {
	if err := c.book.PutPage(title, p); err != nil {
		return err
	}
	c.touch("page imported", slog.String("page", title), slog.Int("notes", len(p.Notes)))
	return nil
}

// DeletePage removes a page and, if it was active, clears the selection.
func (c *Controller) DeletePage(title string) error {
	if !c.book.Library().Has(title) {
		return fmt.Errorf("%w: %q", apperr.ErrPageNotFound, title)
	}
	c.book.DeletePage(title)
	c.touch("page deleted", slog.String("page", title))
	return nil
}

// SelectPage switches the active page. The outgoing page is already
// committed, so switching never loses edits.
func (c *Controller) SelectPage(title string) error {
	err := c.book.SelectPage(title)
	c.dirty = true
	if errors.Is(err, apperr.ErrInvalidPersistedData) {
		c.logger.Warn("page unreadable, showing it empty",
			slog.String("page", title),
			slog.String("error", err.Error()))
	}
	return err
}

// AddNote appends a note to the active page.
func (c *Controller) AddNote(text string) error {
	if err := c.book.AddNote(text); err != nil {
		return err
	}
	c.touch("note added", slog.String("page", c.book.CurrentPage()))
	return nil
}

// ToggleNote flips the checkbox at index on the active page.
func (c *Controller) ToggleNote(index int) error {
	if err := c.book.ToggleNote(index); err != nil {
		return err
	}
	c.touch("note toggled", slog.String("page", c.book.CurrentPage()), slog.Int("index", index))
	return nil
}

// DeleteNotes removes the notes at indices from the active page.
func (c *Controller) DeleteNotes(indices ...int) error {
	if err := c.book.DeleteNotes(indices); err != nil {
		return err
	}
	c.touch("notes deleted", slog.String("page", c.book.CurrentPage()), slog.Int("count", len(indices)))
	return nil
}

// ResetAll clears every page and note. The theme is kept.
func (c *Controller) ResetAll() {
	c.book.ResetAll()
	c.touch("all data reset")
}

// ToggleTheme switches between dark and light.
func (c *Controller) ToggleTheme() models.Theme {
	c.theme.IsDarkMode = !c.theme.IsDarkMode
	c.logger.Debug("theme toggled", slog.String("theme", c.theme.Name()))
	return c.theme
}

// SetTheme replaces the theme.
func (c *Controller) SetTheme(t models.Theme) { c.theme = t }

// SaveTheme writes the theme file immediately.
func (c *Controller) SaveTheme() error {
	if err := c.gw.SaveTheme(c.theme); err != nil {
		c.logger.Error("theme save failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// ReloadTheme rereads the theme file, keeping the current theme when the
// file cannot be parsed.
func (c *Controller) ReloadTheme() (models.Theme, error) {
	theme, err := c.gw.LoadTheme()
	if err != nil {
		c.logger.Warn("theme reload failed", slog.String("error", err.Error()))
		return c.theme, err
	}
	c.theme = theme
	return theme, nil
}

func (c *Controller) touch(msg string, attrs ...any) {
	c.dirty = true
	c.logger.Debug(msg, attrs...)
}
