package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/leafnote/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// pageTitle extracts the title from the URL (everything after /api/pages/).
// Titles may contain slashes, so encoded forms are unescaped.
func pageTitle(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPages handles GET /api/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Pages(r.Context())
	if err != nil {
		writeError(w, "list pages", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPage handles GET /api/pages/*. It does not change the selection.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	title := pageTitle(r)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	resp, err := h.svc.ReadPage(r.Context(), title)
	if err != nil {
		writeError(w, "read page", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreatePage handles POST /api/pages.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	if err := h.svc.CreatePage(r.Context(), req.Title); err != nil {
		writeError(w, "create page", err)
		return
	}
	writeJSON(w, http.StatusCreated, PageResponse{Title: req.Title, Notes: []models.Note{}})
}

// DeletePage handles DELETE /api/pages/*.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	title := pageTitle(r)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	if err := h.svc.DeletePage(r.Context(), title); err != nil {
		writeError(w, "delete page", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCurrent handles GET /api/current.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Current(r.Context()))
}

// SelectPage handles PUT /api/current.
func (h *Handler) SelectPage(w http.ResponseWriter, r *http.Request) {
	var req SelectPageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.SelectPage(r.Context(), req.Title)
	if err != nil {
		writeError(w, "select page", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddNote handles POST /api/current/notes.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req AddNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.AddNote(r.Context(), req.Text)
	if err != nil {
		writeError(w, "add note", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ToggleNote handles POST /api/current/notes/{index}/toggle.
func (h *Handler) ToggleNote(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return
	}
	resp, err := h.svc.ToggleNote(r.Context(), index)
	if err != nil {
		writeError(w, "toggle note", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteNotes handles DELETE /api/current/notes.
func (h *Handler) DeleteNotes(w http.ResponseWriter, r *http.Request) {
	var req DeleteNotesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.DeleteNotes(r.Context(), req.Indices)
	if err != nil {
		writeError(w, "delete notes", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Reset handles POST /api/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /api/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Save(r.Context()); err != nil {
		writeError(w, "save", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTheme handles GET /api/theme.
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Theme(r.Context()))
}

// SetTheme handles PUT /api/theme.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsDarkMode == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("is_dark_mode is required"))
		return
	}
	theme := models.Theme{IsDarkMode: *req.IsDarkMode}
	if err := h.svc.SetTheme(r.Context(), theme); err != nil {
		writeError(w, "set theme", err)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}
