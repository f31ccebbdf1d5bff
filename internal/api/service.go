package api

import (
	"context"
	"errors"
	"sync"

	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/controller"
	"github.com/starford/leafnote/internal/models"
	"github.com/starford/leafnote/internal/sse"
)

// Publisher receives change notifications after successful commands.
type Publisher interface {
	PublishChange(kind string, data any)
}

// Service serializes access to a controller for concurrent HTTP and MCP
// callers and announces each change to an optional publisher.
type Service struct {
	mu     sync.Mutex
	ctl    *controller.Controller
	events Publisher
}

// NewService wraps a started controller. events may be nil.
func NewService(ctl *controller.Controller, events Publisher) *Service {
	return &Service{ctl: ctl, events: events}
}

func (s *Service) publish(kind string, data any) {
	if s.events != nil {
		s.events.PublishChange(kind, data)
	}
}

// Pages lists every page with note counts, plus the current title.
func (s *Service) Pages(_ context.Context) (PageListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	titles := s.ctl.Titles()
	out := PageListResponse{Pages: make([]PageSummary, 0, len(titles)), Current: s.ctl.CurrentPage()}
	for _, title := range titles {
		notes, err := s.ctl.PageNotes(title)
		if err != nil {
			// An unreadable page still lists; it materializes empty.
			notes = nil
		}
		sum := PageSummary{Title: title, Notes: len(notes), Current: s.ctl.IsCurrentPage(title)}
		for _, n := range notes {
			if n.Checked {
				sum.Done++
			}
		}
		out.Pages = append(out.Pages, sum)
	}
	return out, nil
}

// ReadPage returns the notes of any page without changing the selection.
func (s *Service) ReadPage(_ context.Context, title string) (PageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes, err := s.ctl.PageNotes(title)
	if err != nil {
		return PageResponse{}, err
	}
	return PageResponse{Title: title, Notes: nonNilNotes(notes)}, nil
}

// CreatePage adds an empty page.
func (s *Service) CreatePage(_ context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctl.AddPage(title); err != nil {
		return err
	}
	s.publish(sse.PageCreated, sse.PageRef{Page: title})
	return nil
}

// DeletePage removes a page.
func (s *Service) DeletePage(_ context.Context, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctl.DeletePage(title); err != nil {
		return err
	}
	s.publish(sse.PageDeleted, sse.PageRef{Page: title})
	return nil
}

// SelectPage switches the active page and returns its content.
func (s *Service) SelectPage(_ context.Context, title string) (PageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.ctl.SelectPage(title)
	if err != nil && !errors.Is(err, apperr.ErrInvalidPersistedData) {
		return PageResponse{}, err
	}
	s.publish(sse.PageSelected, sse.PageRef{Page: title})
	resp := s.currentLocked()
	if err != nil {
		resp.Warning = "stored notes were unreadable; page starts empty"
	}
	return resp, nil
}

// Current returns the active page.
func (s *Service) Current(_ context.Context) PageResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Service) currentLocked() PageResponse {
	return PageResponse{Title: s.ctl.CurrentPage(), Notes: nonNilNotes(s.ctl.Notes())}
}

// AddNote appends a note to the active page.
func (s *Service) AddNote(_ context.Context, text string) (PageResponse, error) {
	return s.mutateNotes(func() error { return s.ctl.AddNote(text) })
}

// ToggleNote flips a note on the active page.
func (s *Service) ToggleNote(_ context.Context, index int) (PageResponse, error) {
	return s.mutateNotes(func() error { return s.ctl.ToggleNote(index) })
}

// DeleteNotes removes notes from the active page.
func (s *Service) DeleteNotes(_ context.Context, indices []int) (PageResponse, error) {
	return s.mutateNotes(func() error { return s.ctl.DeleteNotes(indices...) })
}

func (s *Service) mutateNotes(fn func() error) (PageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(); err != nil {
		return PageResponse{}, err
	}
	s.publish(sse.NotesChanged, sse.PageRef{Page: s.ctl.CurrentPage()})
	return s.currentLocked(), nil
}

// Reset drops all pages.
func (s *Service) Reset(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctl.ResetAll()
	s.publish(sse.LibraryReset, map[string]string{})
}

// Theme returns the current theme.
func (s *Service) Theme(_ context.Context) models.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.Theme()
}

// SetTheme replaces the theme and writes it out immediately.
func (s *Service) SetTheme(_ context.Context, t models.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctl.SetTheme(t)
	if err := s.ctl.SaveTheme(); err != nil {
		return err
	}
	s.publish(sse.ThemeChanged, t)
	return nil
}

// ReloadTheme rereads the theme file after an external edit.
func (s *Service) ReloadTheme(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	theme, err := s.ctl.ReloadTheme()
	if err != nil {
		return err
	}
	s.publish(sse.ThemeChanged, theme)
	return nil
}

// Save persists the library.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctl.Save(ctx); err != nil {
		return err
	}
	s.publish(sse.Saved, map[string]string{})
	return nil
}

// SaveIfDirty persists the library only when it changed since the last save.
func (s *Service) SaveIfDirty(ctx context.Context) error {
	s.mu.Lock()
	dirty := s.ctl.Dirty()
	s.mu.Unlock()
	if !dirty {
		return nil
	}
	return s.Save(ctx)
}

// Shutdown writes library and theme.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.Shutdown(ctx)
}

func nonNilNotes(n []models.Note) []models.Note {
	if n == nil {
		return []models.Note{}
	}
	return n
}
