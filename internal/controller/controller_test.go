package controller_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/controller"
	"github.com/starford/leafnote/internal/kv"
	"github.com/starford/leafnote/internal/models"
	"github.com/starford/leafnote/internal/persist"
	"github.com/starford/leafnote/internal/testutil"
)

func restart(t *testing.T, gw *persist.Gateway) *controller.Controller {
	t.Helper()
	c := controller.New(gw, testutil.Logger())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return c
}

func TestStartEmpty(t *testing.T) {
	c := testutil.Controller(t)
	if !c.NoPageSelected() {
		t.Error("fresh start should have no page selected")
	}
	if c.CurrentPage() != "" {
		t.Errorf("CurrentPage = %q", c.CurrentPage())
	}
	if !c.Theme().IsDarkMode {
		t.Error("fresh start should be dark")
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	gw, _ := testutil.Gateway(t)
	ctx := context.Background()

	c := restart(t, gw)
	if err := c.AddPage("Work"); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectPage("Work"); err != nil {
		t.Fatal(err)
	}
	_ = c.AddNote("buy milk")
	_ = c.AddNote("file taxes")
	_ = c.ToggleNote(1)
	c.ToggleTheme()
	if err := c.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	c = restart(t, gw)
	if c.CurrentPage() != "Work" {
		t.Errorf("CurrentPage = %q, want Work", c.CurrentPage())
	}
	want := []models.Note{{Text: "buy milk"}, {Text: "file taxes", Checked: true}}
	if diff := cmp.Diff(want, c.Notes()); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
	if c.Theme().IsDarkMode {
		t.Error("theme toggle should survive restart")
	}
}

func TestStartWithCorruptLibrary(t *testing.T) {
	gw, store := testutil.Gateway(t)
	_ = store.Set(context.Background(), persist.LibraryKey, "garbage")

	c := restart(t, gw)
	if !c.NoPageSelected() || len(c.Titles()) != 0 {
		t.Errorf("corrupt library should start empty, got %v", c.Titles())
	}
	if err := c.AddPage("Fresh"); err != nil {
		t.Fatalf("app should remain usable: %v", err)
	}
}

func TestSwitchPagesKeepsEdits(t *testing.T) {
	c := testutil.Controller(t)
	_ = c.AddPage("A")
	_ = c.AddPage("B")
	_ = c.SelectPage("A")
	_ = c.AddNote("on a")
	_ = c.SelectPage("B")
	_ = c.AddNote("on b")
	_ = c.SelectPage("A")

	if diff := cmp.Diff([]models.Note{{Text: "on a"}}, c.Notes()); diff != "" {
		t.Errorf("A mismatch (-want +got):\n%s", diff)
	}
	notes, err := c.PageNotes("B")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]models.Note{{Text: "on b"}}, notes); diff != "" {
		t.Errorf("B mismatch (-want +got):\n%s", diff)
	}
}

func TestDeletePage(t *testing.T) {
	c := testutil.Controller(t)
	_ = c.AddPage("A")
	_ = c.SelectPage("A")
	if err := c.DeletePage("A"); err != nil {
		t.Fatal(err)
	}
	if !c.NoPageSelected() {
		t.Error("deleting active page should clear selection")
	}
	if err := c.DeletePage("A"); !errors.Is(err, apperr.ErrPageNotFound) {
		t.Errorf("err = %v, want ErrPageNotFound", err)
	}
}

func TestResetAllPersists(t *testing.T) {
	gw, _ := testutil.Gateway(t)
	ctx := context.Background()
	c := restart(t, gw)
	_ = c.AddPage("A")
	_ = c.SelectPage("A")
	_ = c.AddNote("x")
	_ = c.Save(ctx)

	c.ResetAll()
	if !c.Dirty() {
		t.Error("reset should mark state dirty")
	}
	_ = c.Save(ctx)

	c = restart(t, gw)
	if len(c.Titles()) != 0 || !c.NoPageSelected() {
		t.Errorf("reset not persisted: %v", c.Titles())
	}
}

type brokenStore struct{ kv.Provider }

func (brokenStore) Set(context.Context, string, string) error { return errors.New("read-only") }

func TestSaveFailureIsNotFatal(t *testing.T) {
	gw, store := testutil.Gateway(t)
	broken := persist.New(brokenStore{store}, gw.ThemePath())
	c := restart(t, broken)
	_ = c.AddPage("A")

	err := c.Save(context.Background())
	if !errors.Is(err, apperr.ErrBackendWrite) {
		t.Fatalf("err = %v, want ErrBackendWrite", err)
	}
	if !c.Dirty() {
		t.Error("failed save should leave state dirty")
	}
	if diff := cmp.Diff([]string{"A"}, c.Titles()); diff != "" {
		t.Errorf("in-memory state lost (-want +got):\n%s", diff)
	}

	err = c.Shutdown(context.Background())
	if !errors.Is(err, apperr.ErrBackendWrite) {
		t.Errorf("Shutdown err = %v, want ErrBackendWrite", err)
	}
}

type unreadableStore struct{ kv.Provider }

func (unreadableStore) Get(context.Context, string) (string, error) {
	return "", errors.New("disk I/O error")
}

func TestStartReadFailureKeepsStoredLibrary(t *testing.T) {
	ctx := context.Background()
	gw, store := testutil.Gateway(t)
	seeded := `{"list":{"Keep":"{\"list\":[]}"},"current_app_state":"Keep"}`
	if err := store.Set(ctx, persist.LibraryKey, seeded); err != nil {
		t.Fatal(err)
	}

	c := controller.New(persist.New(unreadableStore{store}, gw.ThemePath()), testutil.Logger())
	if err := c.Start(ctx); err == nil {
		t.Fatal("Start should report the read failure")
	}
	_ = c.AddPage("Scratch")

	if err := c.Shutdown(ctx); !errors.Is(err, apperr.ErrBackendWrite) {
		t.Errorf("Shutdown err = %v, want ErrBackendWrite", err)
	}
	got, err := store.Get(ctx, persist.LibraryKey)
	if err != nil {
		t.Fatal(err)
	}
	if got != seeded {
		t.Errorf("stored library overwritten: %s", got)
	}
}

func TestStartInvalidLibraryStillSaves(t *testing.T) {
	ctx := context.Background()
	gw, store := testutil.Gateway(t)
	if err := store.Set(ctx, persist.LibraryKey, "{not json"); err != nil {
		t.Fatal(err)
	}
	c := restart(t, gw)
	if err := c.AddPage("Fresh"); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save after invalid data: %v", err)
	}
}

func TestInputErrorsAreTyped(t *testing.T) {
	c := testutil.Controller(t)
	if err := c.AddPage(""); !errors.Is(err, apperr.ErrDuplicateOrEmptyTitle) || !apperr.IsInput(err) {
		t.Errorf("AddPage empty: %v", err)
	}
	if err := c.AddNote("x"); !errors.Is(err, apperr.ErrNoPageSelected) {
		t.Errorf("AddNote without page: %v", err)
	}
	_ = c.AddPage("A")
	_ = c.SelectPage("A")
	if err := c.AddNote(""); !errors.Is(err, apperr.ErrEmptyContent) {
		t.Errorf("AddNote empty: %v", err)
	}
	if err := c.DeleteNotes(3); !errors.Is(err, apperr.ErrNoteIndex) {
		t.Errorf("DeleteNotes out of range: %v", err)
	}
}

func TestImportPage(t *testing.T) {
	c := testutil.Controller(t)
	p := models.Page{Notes: []models.Note{{Text: "old", Checked: true}}}
	if err := c.ImportPage("Legacy", p); err != nil {
		t.Fatal(err)
	}
	notes, err := c.PageNotes("Legacy")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(p.Notes, notes); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := c.PageNotes("missing"); !errors.Is(err, apperr.ErrPageNotFound) {
		t.Errorf("err = %v, want ErrPageNotFound", err)
	}
}

func TestReloadTheme(t *testing.T) {
	gw, _ := testutil.Gateway(t)
	c := restart(t, gw)
	if err := gw.SaveTheme(models.Theme{IsDarkMode: false}); err != nil {
		t.Fatal(err)
	}
	theme, err := c.ReloadTheme()
	if err != nil {
		t.Fatal(err)
	}
	if theme.IsDarkMode || c.Theme().IsDarkMode {
		t.Error("reload should pick up light theme")
	}
}

func TestPendingInput(t *testing.T) {
	c := testutil.Controller(t)
	var form controller.PendingInput

	form.Text = ""
	if form.Submit(c.AddPage) {
		t.Fatal("empty title should not submit")
	}
	if !errors.Is(form.Err, apperr.ErrDuplicateOrEmptyTitle) || form.Warning() == "" {
		t.Errorf("form.Err = %v", form.Err)
	}

	form.Text = "Work"
	if !form.Submit(c.AddPage) {
		t.Fatalf("submit failed: %v", form.Err)
	}
	if form.Text != "" || form.Err != nil || form.Warning() != "" {
		t.Errorf("form not cleared: %+v", form)
	}
}
