// internal/app/features/profiles/routes.go
package profiles

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the profile endpoints, mounted under
// /api/profiles behind RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/me", h.Me)
	r.Put("/me", h.UpdateMe)
	r.Post("/me/stats", h.CreateStats)
	r.Get("/search", h.Search)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/stats", h.GetStats)
	return r
}
