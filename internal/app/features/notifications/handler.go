// internal/app/features/notifications/handler.go

// Package notifications serves the per-user notification feed.
package notifications

import (
	"net/http"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	notifstore "github.com/dalemusser/accord/internal/app/store/notifications"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/paging"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Notifications *notifstore.Store
	Log           *zap.Logger
}

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

// List handles GET /api/notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "notification list")
	defer cancel()

	rows, err := h.Notifications.ListForUser(ctx, u.ID, int64(paging.ParseLimit(r)))
	if err != nil {
		apierrors.Internal(w, h.Log, "notification list", err)
		return
	}
	if rows == nil {
		rows = []models.Notification{}
	}
	unread, err := h.Notifications.CountUnread(ctx, u.ID)
	if err != nil {
		apierrors.Internal(w, h.Log, "notification unread count", err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, listResponse{Notifications: rows, Unread: unread})
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "notification not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notification read")
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, u.ID); err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "notification not found")
			return
		}
		apierrors.Internal(w, h.Log, "notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "notification read all")
	defer cancel()

	n, err := h.Notifications.MarkAllRead(ctx, u.ID)
	if err != nil {
		apierrors.Internal(w, h.Log, "notification read all", err)
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, map[string]int64{"marked": n})
}
