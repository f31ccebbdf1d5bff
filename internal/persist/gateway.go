// Package persist moves the leafnote library and theme between memory and
// storage. The library lives in a key/value slot; the theme lives in its
// own small JSON file.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/kv"
	"github.com/starford/leafnote/internal/models"
)

// LibraryKey is the key/value slot holding the serialized library.
const LibraryKey = "state_list"

// Gateway reads and writes persisted leafnote state.
type Gateway struct {
	store     kv.Provider
	themePath string
}

// New returns a gateway over store with the theme file at themePath.
func New(store kv.Provider, themePath string) *Gateway {
	return &Gateway{store: store, themePath: themePath}
}

// ThemePath returns the theme config file location.
func (g *Gateway) ThemePath() string { return g.themePath }

// LoadLibrary reads the library. A missing slot yields an empty library.
// Unparsable data yields an empty library together with an error wrapping
// apperr.ErrInvalidPersistedData, so callers may log and carry on.
func (g *Gateway) LoadLibrary(ctx context.Context) (models.Library, error) {
	raw, err := g.store.Get(ctx, LibraryKey)
	if errors.Is(err, kv.ErrNotFound) {
		return models.NewLibrary(), nil
	}
	if err != nil {
		return models.NewLibrary(), fmt.Errorf("persist: load library: %w", err)
	}
	lib, err := models.DecodeLibrary([]byte(raw))
	if err != nil {
		return models.NewLibrary(), fmt.Errorf("persist: load library: %w", err)
	}
	return lib, nil
}

// SaveLibrary writes lib as pretty JSON. Failures wrap apperr.ErrBackendWrite.
func (g *Gateway) SaveLibrary(ctx context.Context, lib models.Library) error {
	data, err := models.EncodeLibrary(lib)
	if err != nil {
		return fmt.Errorf("persist: save library: %w", err)
	}
	if err := g.store.Set(ctx, LibraryKey, string(data)); err != nil {
		return fmt.Errorf("persist: save library: %w: %v", apperr.ErrBackendWrite, err)
	}
	return nil
}

// LoadTheme reads the theme file. A missing file yields the default theme.
// The file is user-editable, so comments and trailing commas are accepted.
func (g *Gateway) LoadTheme() (models.Theme, error) {
	data, err := os.ReadFile(g.themePath)
	if errors.Is(err, os.ErrNotExist) {
		return models.DefaultTheme(), nil
	}
	if err != nil {
		return models.DefaultTheme(), fmt.Errorf("persist: read theme %s: %w", g.themePath, err)
	}
	return DecodeTheme(data)
}

// DecodeTheme parses theme JSON (JSONC accepted). Fields that are absent
// keep their default value.
func DecodeTheme(data []byte) (models.Theme, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return models.DefaultTheme(), fmt.Errorf("%w: theme: %v", apperr.ErrInvalidPersistedData, err)
	}
	theme := models.DefaultTheme()
	if err := json.Unmarshal(std, &theme); err != nil {
		return models.DefaultTheme(), fmt.Errorf("%w: theme: %v", apperr.ErrInvalidPersistedData, err)
	}
	return theme, nil
}

// SaveTheme atomically writes the theme file.
func (g *Gateway) SaveTheme(theme models.Theme) error {
	data, err := json.MarshalIndent(theme, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: save theme: %w: %v", apperr.ErrBackendWrite, err)
	}
	if err := os.MkdirAll(filepath.Dir(g.themePath), 0o755); err != nil {
		return fmt.Errorf("persist: save theme: %w: %v", apperr.ErrBackendWrite, err)
	}
	if err := atomic.WriteFile(g.themePath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("persist: save theme: %w: %v", apperr.ErrBackendWrite, err)
	}
	return nil
}
