// internal/app/features/authapi/routes.go
package authapi

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the auth endpoints, mounted under
// /api/auth. The session probe relies on the token middleware running
// ahead of it, which the app router installs globally.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.Signup)
	r.Post("/signin", h.Signin)
	r.Post("/signout", h.Signout)
	r.Get("/session", h.Session)
	return r
}
