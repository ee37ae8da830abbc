// internal/app/features/partners/routes.go
package partners

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the partner endpoints, mounted under
// /api/partners behind RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/requests", h.Request)
	r.Get("/suggestions", h.Suggestions)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/decline", h.Decline)
	r.Put("/{id}/checkin", h.SetCheckIn)
	r.Delete("/{id}", h.End)
	return r
}
