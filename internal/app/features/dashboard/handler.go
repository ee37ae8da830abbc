// internal/app/features/dashboard/handler.go

// Package dashboard aggregates the signed-in user's home screen into a
// single response: counters, upcoming goals, recent sign-ins, the next
// scheduled check-in, and the unread notification count.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	notifstore "github.com/dalemusser/accord/internal/app/store/notifications"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Stats         *statstore.Store
	Goals         *goalstore.Store
	Logins        *loginstore.Store
	Partnerships  *partnerstore.Store
	Notifications *notifstore.Store
	Log           *zap.Logger
}

type response struct {
	Stats         models.DashboardStats `json:"stats"`
	UpcomingGoals []models.Goal         `json:"upcoming_goals"`
	RecentLogins  []models.LoginRecord  `json:"recent_logins"`
	NextCheckIn   *time.Time            `json:"next_check_in,omitempty"`
	Unread        int64                 `json:"unread"`
}

// Get handles GET /api/dashboard.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "dashboard")
	defer cancel()

	var resp response

	st, err := h.Stats.GetByID(ctx, u.ID)
	switch {
	case err == mongo.ErrNoDocuments:
		// Stats lag registration by one job cycle at worst; show zeros.
		resp.Stats = models.DefaultStats(u.ID)
	case err != nil:
		apierrors.Internal(w, h.Log, "dashboard: stats", err)
		return
	default:
		resp.Stats = *st
	}

	if resp.UpcomingGoals, err = h.Goals.UpcomingForOwner(ctx, u.ID, 5); err != nil {
		apierrors.Internal(w, h.Log, "dashboard: upcoming goals", err)
		return
	}
	if resp.UpcomingGoals == nil {
		resp.UpcomingGoals = []models.Goal{}
	}

	if resp.RecentLogins, err = h.Logins.Recent(ctx, u.ID, 5); err != nil {
		apierrors.Internal(w, h.Log, "dashboard: recent logins", err)
		return
	}
	if resp.RecentLogins == nil {
		resp.RecentLogins = []models.LoginRecord{}
	}

	resp.NextCheckIn, err = h.nextCheckIn(ctx, u.ID)
	if err != nil {
		apierrors.Internal(w, h.Log, "dashboard: next check-in", err)
		return
	}

	if resp.Unread, err = h.Notifications.CountUnread(ctx, u.ID); err != nil {
		apierrors.Internal(w, h.Log, "dashboard: unread", err)
		return
	}

	apierrors.WriteJSON(w, http.StatusOK, resp)
}

// nextCheckIn returns the soonest upcoming check-in across the user's
// active partnerships, or nil when none is scheduled.
func (h *Handler) nextCheckIn(ctx context.Context, userID string) (*time.Time, error) {
	rows, err := h.Partnerships.ListForUser(ctx, userID, models.PartnershipActive)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var next *time.Time
	for _, p := range rows {
		at := p.NextCheckIn
		if at == nil || at.Before(now) {
			continue
		}
		if next == nil || at.Before(*next) {
			t := at.UTC()
			next = &t
		}
	}
	return next, nil
}
