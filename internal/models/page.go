// Package models defines the leafnote document types and their JSON forms.
package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/leafnote/internal/apperr"
)

const indent = "  "

// Note is a single checkbox entry on a page.
type Note struct {
	Text    string `json:"text"`
	Checked bool   `json:"is_checked"`
}

// Page is an ordered list of notes. A page never stores its own title;
// the title only exists as a key in Library.Pages.
type Page struct {
	Notes []Note `json:"list"`
}

// Clone returns a deep copy of p with a non-nil Notes slice.
func (p Page) Clone() Page {
	notes := make([]Note, len(p.Notes))
	copy(notes, p.Notes)
	return Page{Notes: notes}
}

// EncodePage returns the canonical pretty-printed JSON form of p.
func EncodePage(p Page) (string, error) {
	if p.Notes == nil {
		p.Notes = []Note{}
	}
	data, err := json.MarshalIndent(p, "", indent)
	if err != nil {
		return "", fmt.Errorf("%w: encode page: %v", apperr.ErrBackendWrite, err)
	}
	return string(data), nil
}

// DecodePage parses a serialized page. An empty (or blank) blob is the
// serialized form of a freshly created page and decodes to an empty Page.
func DecodePage(blob string) (Page, error) {
	if strings.TrimSpace(blob) == "" {
		return Page{Notes: []Note{}}, nil
	}
	var p Page
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return Page{Notes: []Note{}}, fmt.Errorf("%w: page: %v", apperr.ErrInvalidPersistedData, err)
	}
	if p.Notes == nil {
		p.Notes = []Note{}
	}
	return p, nil
}
