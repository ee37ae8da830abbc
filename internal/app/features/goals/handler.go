// internal/app/features/goals/handler.go

// Package goals serves goal CRUD for the signed-in user. Every
// operation is scoped to the owner; a goal id belonging to someone else
// reads as not found.
package goals

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/htmlsanitize"
	"github.com/dalemusser/accord/internal/app/system/normalize"
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
	Goals *goalstore.Store
	Stats *statstore.Store
	Log   *zap.Logger
}

type goalRequest struct {
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Progress    int       `json:"progress"`
}

type listResponse struct {
	Goals []models.Goal `json:"goals"`
	Prev  string        `json:"prev,omitempty"`
	Next  string        `json:"next,omitempty"`
}

// Create handles POST /api/goals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	var req goalRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if normalize.Name(req.Title) == "" {
		apierrors.BadRequest(w, "title is required")
		return
	}
	if req.DueDate.IsZero() {
		apierrors.BadRequest(w, "due date is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "goal create")
	defer cancel()

	created, err := h.Goals.Create(ctx, models.Goal{
		OwnerID:     u.ID,
		Title:       req.Title,
		Category:    req.Category,
		Description: htmlsanitize.Sanitize(req.Description),
		DueDate:     req.DueDate.UTC(),
		Progress:    req.Progress,
	})
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, created)
}

// List handles GET /api/goals with status/category/search filters and
// keyset cursors.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	status := query.Get(r, "status")
	if status != "" && !models.ValidGoalStatus(status) {
		apierrors.BadRequest(w, "unknown status")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "goal list")
	defer cancel()

	rows, _, err := h.Goals.List(ctx, goalstore.ListFilter{
		OwnerID:  u.ID,
		Status:   status,
		Category: query.Get(r, "category"),
		Search:   query.Get(r, "q"),
	}, query.Get(r, "before"), query.Get(r, "after"), paging.ParseLimit(r))
	if err != nil {
		apierrors.Internal(w, h.Log, "goal list", err)
		return
	}
	if rows == nil {
		rows = []models.Goal{}
	}

	prev, next := goalstore.Cursors(rows)
	apierrors.WriteJSON(w, http.StatusOK, listResponse{Goals: rows, Prev: prev, Next: next})
}

// Get handles GET /api/goals/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "goal not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "goal get")
	defer cancel()

	g, err := h.Goals.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "goal not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "goal get", err)
		return
	}
	if g.OwnerID != u.ID {
		apierrors.NotFound(w, "goal not found")
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, g)
}

// Update handles PUT /api/goals/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "goal not found")
		return
	}

	var req goalRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if normalize.Name(req.Title) == "" {
		apierrors.BadRequest(w, "title is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "goal update")
	defer cancel()

	before, err := h.Goals.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && before.OwnerID != u.ID) {
		apierrors.NotFound(w, "goal not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "goal update", err)
		return
	}

	err = h.Goals.Update(ctx, id, u.ID, goalstore.Update{
		Title:       req.Title,
		Category:    req.Category,
		Description: htmlsanitize.Sanitize(req.Description),
		DueDate:     req.DueDate,
		Progress:    req.Progress,
	})
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "goal not found")
		return
	}
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	h.creditCompletion(ctx, before, req.Progress)
	h.reload(w, ctx, id)
}

type progressRequest struct {
	Progress int `json:"progress"`
}

// SetProgress handles PATCH /api/goals/{id}/progress. Reaching 100
// completes the goal and credits the dashboard counters once.
func (h *Handler) SetProgress(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "goal not found")
		return
	}

	var req progressRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "goal progress")
	defer cancel()

	before, err := h.Goals.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && before.OwnerID != u.ID) {
		apierrors.NotFound(w, "goal not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "goal progress", err)
		return
	}

	if err := h.Goals.SetProgress(ctx, id, u.ID, req.Progress); err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "goal not found")
			return
		}
		apierrors.BadRequest(w, err.Error())
		return
	}

	h.creditCompletion(ctx, before, req.Progress)
	h.reload(w, ctx, id)
}

// Delete handles DELETE /api/goals/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "goal not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "goal delete")
	defer cancel()

	n, err := h.Goals.Delete(ctx, id, u.ID)
	if err != nil {
		apierrors.Internal(w, h.Log, "goal delete", err)
		return
	}
	if n == 0 {
		apierrors.NotFound(w, "goal not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// creditCompletion bumps the completion counters when this write moved
// the goal into the completed state for the first time. Counter drift
// is corrected by the recompute job, so a failed bump is only logged.
func (h *Handler) creditCompletion(ctx context.Context, before *models.Goal, progress int) {
	if progress != 100 || before.Status == models.GoalCompleted {
		return
	}
	if err := h.Stats.IncrementGoalsCompleted(ctx, before.OwnerID, models.PointsPerGoal); err != nil {
		h.Log.Warn("goal completion: bump stats", zap.Error(err), zap.String("owner_id", before.OwnerID))
	}
}

func (h *Handler) reload(w http.ResponseWriter, ctx context.Context, id primitive.ObjectID) {
	g, err := h.Goals.GetByID(ctx, id)
	if err != nil {
		apierrors.Internal(w, h.Log, "goal reload", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, g)
}
