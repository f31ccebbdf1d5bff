package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/starford/leafnote/internal/apperr"
)

// Library indexes every page by title. Page contents are kept as opaque
// serialized blobs; only the current page is ever decoded.
type Library struct {
	Pages       map[string]string `json:"list"`
	CurrentPage string            `json:"current_app_state"`
}

// NewLibrary returns an empty library with no page selected.
func NewLibrary() Library {
	return Library{Pages: map[string]string{}}
}

// Clone returns a copy of l that shares no map with it.
func (l Library) Clone() Library {
	pages := make(map[string]string, len(l.Pages))
	for k, v := range l.Pages {
		pages[k] = v
	}
	return Library{Pages: pages, CurrentPage: l.CurrentPage}
}

// Titles returns the page titles in lexical order.
func (l Library) Titles() []string {
	out := make([]string, 0, len(l.Pages))
	for t := range l.Pages {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Has reports whether title is a page of l.
func (l Library) Has(title string) bool {
	_, ok := l.Pages[title]
	return ok
}

// EncodeLibrary returns the pretty-printed JSON form of l.
func EncodeLibrary(l Library) ([]byte, error) {
	if l.Pages == nil {
		l.Pages = map[string]string{}
	}
	data, err := json.MarshalIndent(l, "", indent)
	if err != nil {
		return nil, fmt.Errorf("%w: encode library: %v", apperr.ErrBackendWrite, err)
	}
	return data, nil
}

// DecodeLibrary parses a serialized library. A current page that does not
// name an existing page is cleared.
func DecodeLibrary(data []byte) (Library, error) {
	var l Library
	if err := json.Unmarshal(data, &l); err != nil {
		return NewLibrary(), fmt.Errorf("%w: library: %v", apperr.ErrInvalidPersistedData, err)
	}
	if l.Pages == nil {
		l.Pages = map[string]string{}
	}
	if l.CurrentPage != "" && !l.Has(l.CurrentPage) {
		l.CurrentPage = ""
	}
	return l, nil
}
