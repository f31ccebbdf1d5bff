// Package ui provides the interactive terminal front end.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/leafnote/internal/controller"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	autosave time.Duration
	logger   *slog.Logger
}

// WithAutosave sets how often a dirty library is written. Zero disables
// the periodic save; quitting still saves.
func WithAutosave(d time.Duration) TUIOption {
	return func(c *tuiConfig) {
		c.autosave = d
	}
}

// WithLogger sets the logger used for save failures.
func WithLogger(l *slog.Logger) TUIOption {
	return func(c *tuiConfig) {
		c.logger = l
	}
}

// RunTUI drives ctl from the terminal until the user quits. The controller
// must already be started; it is shut down (library and theme saved) on quit.
func RunTUI(ctx context.Context, ctl *controller.Controller, opts ...TUIOption) error {
	c := &tuiConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	m := newModel(ctx, ctl, c)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		// Interrupted without going through quit: still try to save.
		if shutdownErr := ctl.Shutdown(context.Background()); shutdownErr != nil {
			c.logger.Error("shutdown after tui error failed", slog.String("error", shutdownErr.Error()))
		}
		return err
	}
	if fm, ok := finalModel.(*model); ok {
		return fm.shutdownErr
	}
	return nil
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
