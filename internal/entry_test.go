package internal

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/leafnote/internal/kv"
	"github.com/starford/leafnote/internal/models"
	"github.com/starford/leafnote/internal/testutil"
)

func testConfig(t *testing.T, backend string) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = backend
	cfg.Storage.Path = filepath.Join(dir, "store")
	if backend == kv.BackendSQLite {
		cfg.Storage.Path = filepath.Join(dir, "leafnote.db")
	}
	cfg.Theme.Path = filepath.Join(dir, "config.json")
	cfg.App.HTTP.Port = 0
	cfg.App.AutosaveInterval = 0
	cfg.Watch.Enabled = false
	return cfg
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestNew_PersistsAcrossRestart(t *testing.T) {
	for _, backend := range []string{kv.BackendSQLite, kv.BackendFile} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t, backend)
			ctx := context.Background()
			var logs bytes.Buffer

			app, err := New(ctx, WithConfig(cfg), WithLogOutput(&logs))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			ctl := app.Controller
			if err := ctl.AddPage("Work"); err != nil {
				t.Fatal(err)
			}
			if err := ctl.SelectPage("Work"); err != nil {
				t.Fatal(err)
			}
			if err := ctl.AddNote("buy milk"); err != nil {
				t.Fatal(err)
			}
			ctl.ToggleTheme()
			if err := app.Shutdown(ctx); err != nil {
				t.Fatalf("Shutdown: %v", err)
			}
			if err := app.Close(); err != nil {
				t.Fatal(err)
			}
			if logs.Len() == 0 {
				t.Error("expected startup log output")
			}

			app, err = New(ctx, WithConfig(cfg), WithLogOutput(&bytes.Buffer{}))
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer app.Close()
			if got := app.Controller.CurrentPage(); got != "Work" {
				t.Errorf("current page = %q, want Work", got)
			}
			notes := app.Controller.Notes()
			if len(notes) != 1 || notes[0] != (models.Note{Text: "buy milk"}) {
				t.Errorf("notes = %+v", notes)
			}
			if app.Controller.Theme().IsDarkMode {
				t.Error("theme should have been saved as light")
			}
		})
	}
}

func TestServe_StopsOnCancelAndSaves(t *testing.T) {
	cfg := testConfig(t, kv.BackendSQLite)
	cfg.Watch.Enabled = true
	ctx, cancel := context.WithCancel(context.Background())

	app, err := New(ctx, WithConfig(cfg), WithLogOutput(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()
	if err := app.Controller.AddPage("queued"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}

	lib, err := app.Gateway.LoadLibrary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !lib.Has("queued") {
		t.Error("shutdown should have saved the library")
	}
}

func TestAutosave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		autosave(ctx, 10*time.Millisecond, testutil.Logger(), func(context.Context) error {
			if calls.Add(1) == 1 {
				return errors.New("disk full")
			}
			return nil
		})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if calls.Load() < 3 {
		t.Errorf("calls = %d, want at least 3 (errors must not stop the loop)", calls.Load())
	}

	// Zero interval returns at once.
	autosave(context.Background(), 0, testutil.Logger(), nil)
}
