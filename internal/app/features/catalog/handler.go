// internal/app/features/catalog/handler.go

// Package catalog serves the read-only course and tip library.
package catalog

import (
	"net/http"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	catalogstore "github.com/dalemusser/accord/internal/app/store/catalog"
	"github.com/dalemusser/accord/internal/app/system/paging"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Catalog *catalogstore.Store
	Log     *zap.Logger
}

type courseListResponse struct {
	Courses []models.Course `json:"courses"`
	Prev    string          `json:"prev,omitempty"`
	Next    string          `json:"next,omitempty"`
}

// ListCourses handles GET /api/courses with category and title search
// filters plus keyset cursors.
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "course list")
	defer cancel()

	rows, _, err := h.Catalog.ListCourses(ctx, query.Get(r, "category"), query.Get(r, "q"),
		query.Get(r, "before"), query.Get(r, "after"), paging.ParseLimit(r))
	if err != nil {
		apierrors.Internal(w, h.Log, "course list", err)
		return
	}
	if rows == nil {
		rows = []models.Course{}
	}

	prev, next := catalogstore.CourseCursors(rows)
	apierrors.WriteJSON(w, http.StatusOK, courseListResponse{Courses: rows, Prev: prev, Next: next})
}

type courseResponse struct {
	models.Course
	Lessons []models.Lesson `json:"lessons"`
}

// GetCourse handles GET /api/courses/{id}, returning the course with
// its lessons in order.
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "course not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "course get")
	defer cancel()

	c, err := h.Catalog.GetCourse(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "course not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "course get", err)
		return
	}

	lessons, err := h.Catalog.LessonsForCourse(ctx, id)
	if err != nil {
		apierrors.Internal(w, h.Log, "course lessons", err)
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	apierrors.WriteJSON(w, http.StatusOK, courseResponse{Course: *c, Lessons: lessons})
}

type tipListResponse struct {
	Tips []models.Tip `json:"tips"`
	Prev string       `json:"prev,omitempty"`
	Next string       `json:"next,omitempty"`
}

// ListTips handles GET /api/tips.
func (h *Handler) ListTips(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "tip list")
	defer cancel()

	rows, _, err := h.Catalog.ListTips(ctx, query.Get(r, "category"), query.Get(r, "q"),
		query.Get(r, "before"), query.Get(r, "after"), paging.ParseLimit(r))
	if err != nil {
		apierrors.Internal(w, h.Log, "tip list", err)
		return
	}
	if rows == nil {
		rows = []models.Tip{}
	}

	prev, next := catalogstore.TipCursors(rows)
	apierrors.WriteJSON(w, http.StatusOK, tipListResponse{Tips: rows, Prev: prev, Next: next})
}

// LikeTip handles POST /api/tips/{id}/like.
func (h *Handler) LikeTip(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "tip not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "tip like")
	defer cancel()

	if err := h.Catalog.LikeTip(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "tip not found")
			return
		}
		apierrors.Internal(w, h.Log, "tip like", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
