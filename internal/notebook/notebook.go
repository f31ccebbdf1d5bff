// Package notebook implements the leafnote document model: a library of
// serialized pages plus the one page that is materialized for editing.
//
// Every mutator ends with Commit, which writes the active page's canonical
// serialized form back into the library so the two never drift.
package notebook

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/models"
)

// Notebook owns a Library and its active Page. It is not safe for
// concurrent use.
type Notebook struct {
	lib  models.Library
	page models.Page
}

// New returns an empty notebook with no page selected.
func New() *Notebook {
	return &Notebook{lib: models.NewLibrary(), page: models.Page{Notes: []models.Note{}}}
}

// Load replaces the notebook state with lib and materializes its current
// page. A corrupt current page blob yields an empty page and an
// ErrInvalidPersistedData error; the library is still installed.
func Load(lib models.Library) (*Notebook, error) {
	nb := &Notebook{lib: lib.Clone(), page: models.Page{Notes: []models.Note{}}}
	if nb.lib.CurrentPage == "" {
		return nb, nil
	}
	if !nb.lib.Has(nb.lib.CurrentPage) {
		nb.lib.CurrentPage = ""
		return nb, nil
	}
	return nb, nb.materialize()
}

// Library returns a copy of the library index.
func (nb *Notebook) Library() models.Library { return nb.lib.Clone() }

// Page returns a copy of the active page.
func (nb *Notebook) Page() models.Page { return nb.page.Clone() }

// Notes returns a copy of the active page's notes.
func (nb *Notebook) Notes() []models.Note { return nb.page.Clone().Notes }

// Titles returns every page title in lexical order.
func (nb *Notebook) Titles() []string { return nb.lib.Titles() }

// CurrentPage returns the selected page title, or "" when none is selected.
func (nb *Notebook) CurrentPage() string { return nb.lib.CurrentPage }

// NoPageSelected reports whether no page is active.
func (nb *Notebook) NoPageSelected() bool { return nb.lib.CurrentPage == "" }

// IsCurrent reports whether title is the active page.
func (nb *Notebook) IsCurrent(title string) bool {
	return title != "" && nb.lib.CurrentPage == title
}

// NewPage inserts an empty page under title.
func (nb *Notebook) NewPage(title string) error {
	if strings.TrimSpace(title) == "" || nb.lib.Has(title) {
		return fmt.Errorf("%w: %q", apperr.ErrDuplicateOrEmptyTitle, title)
	}
	nb.lib.Pages[title] = ""
	return nil
}

// PutPage inserts a page with content p under title and leaves the
// selection untouched.
func (nb *Notebook) PutPage(title string, p models.Page) error {
	if strings.TrimSpace(title) == "" || nb.lib.Has(title) {
		return fmt.Errorf("%w: %q", apperr.ErrDuplicateOrEmptyTitle, title)
	}
	blob, err := models.EncodePage(p)
	if err != nil {
		return err
	}
	nb.lib.Pages[title] = blob
	return nil
}

// DeletePage removes title. Deleting the active page clears the selection
// and the materialized page. Unknown titles are ignored.
func (nb *Notebook) DeletePage(title string) {
	delete(nb.lib.Pages, title)
	if nb.lib.CurrentPage == title {
		nb.lib.CurrentPage = ""
		nb.page = models.Page{Notes: []models.Note{}}
	}
}

// SelectPage makes title the active page and materializes it.
//
// An unknown title leaves no page selected and an empty page, returning
// ErrPageNotFound. A corrupt blob keeps the selection with an empty page
// and returns ErrInvalidPersistedData; the next commit overwrites it.
func (nb *Notebook) SelectPage(title string) error {
	if !nb.lib.Has(title) {
		nb.lib.CurrentPage = ""
		nb.page = models.Page{Notes: []models.Note{}}
		return fmt.Errorf("%w: %q", apperr.ErrPageNotFound, title)
	}
	nb.lib.CurrentPage = title
	return nb.materialize()
}

func (nb *Notebook) materialize() error {
	p, err := models.DecodePage(nb.lib.Pages[nb.lib.CurrentPage])
	nb.page = p
	return err
}

// AddNote appends an unchecked note to the active page.
func (nb *Notebook) AddNote(text string) error {
	if text == "" {
		return apperr.ErrEmptyContent
	}
	if nb.NoPageSelected() {
		return apperr.ErrNoPageSelected
	}
	nb.page.Notes = append(nb.page.Notes, models.Note{Text: text})
	return nb.Commit()
}

// ToggleNote flips the checked state of the note at index.
func (nb *Notebook) ToggleNote(index int) error {
	if nb.NoPageSelected() {
		return apperr.ErrNoPageSelected
	}
	if index < 0 || index >= len(nb.page.Notes) {
		return fmt.Errorf("%w: %d", apperr.ErrNoteIndex, index)
	}
	nb.page.Notes[index].Checked = !nb.page.Notes[index].Checked
	return nb.Commit()
}

// DeleteNotes removes every note whose position is listed in indices.
// Positions refer to the page as it was before the call; duplicates
// collapse. Any out-of-range index rejects the whole call.
func (nb *Notebook) DeleteNotes(indices []int) error {
	if nb.NoPageSelected() {
		return apperr.ErrNoPageSelected
	}
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(nb.page.Notes) {
			return fmt.Errorf("%w: %d", apperr.ErrNoteIndex, i)
		}
		set[i] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	order := make([]int, 0, len(set))
	for i := range set {
		order = append(order, i)
	}
	// Highest first so earlier positions stay valid while removing.
	sort.Sort(sort.Reverse(sort.IntSlice(order)))
	for _, i := range order {
		nb.page.Notes = append(nb.page.Notes[:i], nb.page.Notes[i+1:]...)
	}
	return nb.Commit()
}

// ResetAll drops every page and note.
func (nb *Notebook) ResetAll() {
	nb.lib = models.NewLibrary()
	nb.page = models.Page{Notes: []models.Note{}}
}

// Commit writes the active page into the library under the current title.
// It is a no-op when no page is selected.
func (nb *Notebook) Commit() error {
	if nb.NoPageSelected() {
		return nil
	}
	blob, err := models.EncodePage(nb.page)
	if err != nil {
		return err
	}
	nb.lib.Pages[nb.lib.CurrentPage] = blob
	return nil
}
