package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Pages.
	r.Get("/pages", h.ListPages)
	r.Post("/pages", h.CreatePage)
	r.Get("/pages/*", h.GetPage)
	r.Delete("/pages/*", h.DeletePage)

	// Active page and its notes.
	r.Get("/current", h.GetCurrent)
	r.Put("/current", h.SelectPage)
	r.Post("/current/notes", h.AddNote)
	r.Post("/current/notes/{index}/toggle", h.ToggleNote)
	r.Delete("/current/notes", h.DeleteNotes)

	r.Post("/reset", h.Reset)
	r.Post("/save", h.Save)

	r.Get("/theme", h.GetTheme)
	r.Put("/theme", h.SetTheme)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
