// Package kv implements the key/value persistence slot leafnote stores
// its library in.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has never been set.
var ErrNotFound = errors.New("kv: key not found")

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Provider is a string-to-string store. Values are written whole; a
// failed Set leaves the previous value in place.
type Provider interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the Provider for backend rooted at path: a database file
// for "sqlite", a directory for "file".
func Open(backend, path string) (Provider, error) {
	switch backend {
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendFile:
		return NewFiles(path)
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", backend)
	}
}
