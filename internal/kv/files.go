package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"
)

const fileExt = ".json"

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]*$`)

// Files implements Provider as one file per key inside a directory.
type Files struct {
	root string // absolute path to the store directory
}

// NewFiles creates a file-backed store rooted at dir, creating it if needed.
func NewFiles(dir string) (*Files, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("kv: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kv: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kv: root is not a directory: %s", abs)
	}
	return &Files{root: abs}, nil
}

// keyPath maps key to its file. Keys are plain names; anything that could
// address a path outside root is rejected.
func (f *Files) keyPath(key string) (string, error) {
	if !keyRe.MatchString(key) || strings.Contains(key, "..") {
		return "", fmt.Errorf("kv: invalid key %q", key)
	}
	return filepath.Join(f.root, key+fileExt), nil
}

// Get reads the file for key.
func (f *Files) Get(_ context.Context, key string) (string, error) {
	p, err := f.keyPath(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kv: read %s: %w", key, err)
	}
	return string(data), nil
}

// Set atomically replaces the file for key.
func (f *Files) Set(_ context.Context, key, value string) error {
	p, err := f.keyPath(key)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(p, strings.NewReader(value)); err != nil {
		return fmt.Errorf("kv: write %s: %w", key, err)
	}
	return nil
}

// Close is a no-op for the file store.
func (f *Files) Close() error { return nil }
