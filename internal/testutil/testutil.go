// Package testutil provides shared test helpers for setting up stores and
// controllers on temporary directories.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/leafnote/internal/controller"
	"github.com/starford/leafnote/internal/kv"
	"github.com/starford/leafnote/internal/persist"
)

// Logger returns a logger that discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Store creates a temporary SQLite key/value store that is closed on cleanup.
func Store(t *testing.T) kv.Provider {
	t.Helper()
	db, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "leafnote-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Gateway creates a persistence gateway over a temporary store and theme file.
func Gateway(t *testing.T) (*persist.Gateway, kv.Provider) {
	t.Helper()
	store := Store(t)
	return persist.New(store, filepath.Join(t.TempDir(), "config.json")), store
}

// Controller returns a started controller backed by temporary storage.
func Controller(t *testing.T) *controller.Controller {
	t.Helper()
	gw, _ := Gateway(t)
	c := controller.New(gw, Logger())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return c
}
