// internal/app/features/goals/routes.go
package goals

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the goal endpoints, mounted under
// /api/goals behind RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/progress", h.SetProgress)
	r.Delete("/{id}", h.Delete)
	return r
}
