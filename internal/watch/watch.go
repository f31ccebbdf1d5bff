// Package watch reloads a single file when it changes on disk.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/leafnote/internal/checksum"
)

// Debounce is how long the watcher waits after the last event before it
// reads the file. Editors and atomic writers emit several events per save.
const Debounce = 150 * time.Millisecond

// ChangeFunc is called after the watched file's content changed.
type ChangeFunc func(ctx context.Context) error

// File watches path until ctx is cancelled and calls onChange once per
// distinct content. The parent directory is watched so the file may be
// created, replaced by rename, or deleted and recreated.
func File(ctx context.Context, path string, logger *slog.Logger, onChange ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	last, err := checksum.SumFile(abs)
	if err != nil {
		logger.Warn("watch: initial read failed", slog.String("path", abs), slog.String("error", err.Error()))
	}
	logger.Info("watch: started", slog.String("path", abs))

	timer := time.NewTimer(Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(Debounce)

		case <-timer.C:
			sum, err := checksum.SumFile(abs)
			if err != nil {
				logger.Warn("watch: read failed", slog.String("path", abs), slog.String("error", err.Error()))
				continue
			}
			if sum == last {
				continue
			}
			last = sum
			// A removed file has no content to reload; wait for it to reappear.
			if sum == "" {
				continue
			}
			logger.Debug("watch: changed", slog.String("path", abs))
			if err := onChange(ctx); err != nil {
				logger.Warn("watch: reload failed", slog.String("path", abs), slog.String("error", err.Error()))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}
