package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	fileatomic "github.com/natefinch/atomic"

	"github.com/starford/leafnote/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, path string) *atomic.Int32 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var calls atomic.Int32
	go func() {
		done <- File(ctx, path, testutil.Logger(), func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("File returned %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	time.Sleep(100 * time.Millisecond)
	return &calls
}

func TestFile_WriteTriggersOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	calls := startWatch(t, path)

	if err := os.WriteFile(path, []byte(`{"is_dark_mode": false}`), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() == 1 },
		"change not reported")

	// Same bytes again: no second reload.
	if err := os.WriteFile(path, []byte(`{"is_dark_mode": false}`), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3 * Debounce)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d after identical write, want 1", n)
	}
}

func TestFile_AtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"is_dark_mode": true}`), 0o644); err != nil {
		t.Fatal(err)
	}
	calls := startWatch(t, path)

	if err := fileatomic.WriteFile(path, strings.NewReader(`{"is_dark_mode": false}`)); err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() == 1 },
		"atomic replace not reported")
}

func TestFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	calls := startWatch(t, filepath.Join(dir, "config.json"))

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(3 * Debounce)
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d for sibling file, want 0", n)
	}
}

func TestFile_MissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "nope", "config.json"), testutil.Logger(), nil)
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
