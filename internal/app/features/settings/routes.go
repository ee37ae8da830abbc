// internal/app/features/settings/routes.go
package settings

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the settings endpoints, mounted under
// /api/settings behind the signed-in requirement.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Put("/password", h.ChangePassword)
	r.Delete("/account", h.DeleteAccount)
	return r
}
