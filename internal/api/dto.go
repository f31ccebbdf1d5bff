package api

import "github.com/starford/leafnote/internal/models"

// CreatePageRequest is the request body for creating a page.
type CreatePageRequest struct {
	Title string `json:"title" example:"Work" validate:"required"`
}

// SelectPageRequest is the request body for switching the active page.
type SelectPageRequest struct {
	Title string `json:"title" example:"Work" validate:"required"`
}

// AddNoteRequest is the request body for adding a note to the active page.
type AddNoteRequest struct {
	Text string `json:"text" example:"buy milk" validate:"required"`
}

// DeleteNotesRequest lists note positions to delete from the active page.
type DeleteNotesRequest struct {
	Indices []int `json:"indices" example:"0,2" validate:"required"`
}

// ThemeRequest is the request body for changing the theme.
type ThemeRequest struct {
	IsDarkMode *bool `json:"is_dark_mode" validate:"required"`
}

// PageSummary is one entry of the page list.
type PageSummary struct {
	Title   string `json:"title" example:"Work"`
	Notes   int    `json:"notes" example:"3"`
	Done    int    `json:"done" example:"1"`
	Current bool   `json:"current"`
}

// PageListResponse wraps the page list.
type PageListResponse struct {
	Pages   []PageSummary `json:"pages"`
	Current string        `json:"current"`
}

// PageResponse is a page title with its notes. Warning is set when the page
// could be shown only in degraded form, such as unreadable stored notes.
type PageResponse struct {
	Title   string        `json:"title"`
	Notes   []models.Note `json:"notes"`
	Warning string        `json:"warning,omitempty"`
}
