// internal/app/features/catalog/routes.go
package catalog

import "github.com/go-chi/chi/v5"

// Routes returns two subrouters for the catalog: courses and tips are
// mounted separately under /api/courses and /api/tips.
func Routes(h *Handler) (courses, tips chi.Router) {
	courses = chi.NewRouter()
	courses.Get("/", h.ListCourses)
	courses.Get("/{id}", h.GetCourse)

	tips = chi.NewRouter()
	tips.Get("/", h.ListTips)
	tips.Post("/{id}/like", h.LikeTip)
	return courses, tips
}
