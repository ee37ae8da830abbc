// internal/app/features/profiles/handler.go

// Package profiles serves the profile and dashboard-stats records. A
// profile is created once, right after signup, by the client's register
// flow; after that it is edited in place and read by id.
package profiles

import (
	"net/http"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	"github.com/dalemusser/accord/internal/app/store/profiles"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/app/system/auditlog"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/htmlsanitize"
	"github.com/dalemusser/accord/internal/app/system/normalize"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Profiles *profiles.Store
	Stats    *statstore.Store
	Audit    *auditlog.Logger
	Log      *zap.Logger
}

type createRequest struct {
	Name      string   `json:"name"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
	AvatarURL string   `json:"avatar_url"`
}

// Create handles POST /api/profiles. The profile is keyed by the
// caller's identity id; a second insert for the same identity is a 409.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	var req createRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if normalize.Name(req.Name) == "" {
		apierrors.BadRequest(w, "name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "profile create")
	defer cancel()

	created, err := h.Profiles.Insert(ctx, models.User{
		ID:        u.ID,
		Name:      req.Name,
		Email:     u.Email,
		Bio:       htmlsanitize.Sanitize(req.Bio),
		Interests: req.Interests,
		AvatarURL: req.AvatarURL,
	})
	if err == profiles.ErrDuplicateProfile {
		apierrors.Conflict(w, err.Error())
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "profile create", err)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, created)
}

// CreateStats handles POST /api/profiles/me/stats, the second half of
// the register flow. The record starts at the zero counters.
func (h *Handler) CreateStats(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "stats create")
	defer cancel()

	st := models.DefaultStats(u.ID)
	if err := h.Stats.Insert(ctx, st); err == statstore.ErrDuplicateStats {
		apierrors.Conflict(w, err.Error())
		return
	} else if err != nil {
		apierrors.Internal(w, h.Log, "stats create", err)
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, st)
}

// Me handles GET /api/profiles/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	h.getProfile(w, r, u.ID)
}

// Get handles GET /api/profiles/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.getProfile(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile get")
	defer cancel()

	u, err := h.Profiles.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "profile not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "profile get", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, u)
}

type updateRequest struct {
	Name      string   `json:"name"`
	Bio       string   `json:"bio"`
	Interests []string `json:"interests"`
	AvatarURL string   `json:"avatar_url"`
}

// UpdateMe handles PUT /api/profiles/me. The update replaces every
// editable field, so callers send the full record back.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	var req updateRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if normalize.Name(req.Name) == "" {
		apierrors.BadRequest(w, "name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "profile update")
	defer cancel()

	err := h.Profiles.Update(ctx, u.ID, profiles.Update{
		Name:      req.Name,
		Bio:       htmlsanitize.Sanitize(req.Bio),
		Interests: req.Interests,
		AvatarURL: req.AvatarURL,
	})
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "profile not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "profile update", err)
		return
	}

	h.Audit.ProfileUpdated(ctx, r, u.ID, "name,bio,interests,avatar_url")

	updated, err := h.Profiles.GetByID(ctx, u.ID)
	if err != nil {
		apierrors.Internal(w, h.Log, "profile reload", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, updated)
}

// GetStats handles GET /api/profiles/{id}/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "stats get")
	defer cancel()

	st, err := h.Stats.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "stats not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "stats get", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, st)
}

// Search handles GET /api/profiles/search?q=prefix, the partner picker
// lookup. The caller is excluded from the results.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile search")
	defer cancel()

	users, err := h.Profiles.SearchByName(ctx, query.Get(r, "q"), u.ID, 20)
	if err != nil {
		apierrors.Internal(w, h.Log, "profile search", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	apierrors.WriteJSON(w, http.StatusOK, users)
}
