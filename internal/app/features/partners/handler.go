// internal/app/features/partners/handler.go

// Package partners serves accountability-partner requests and links.
// Accepting a request activates the partnership and notifies the
// requester; either side can end an active partnership.
package partners

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	"github.com/dalemusser/accord/internal/app/store/notifications"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	"github.com/dalemusser/accord/internal/app/store/profiles"
	"github.com/dalemusser/accord/internal/app/system/auditlog"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Partnerships  *partnerstore.Store
	Profiles      *profiles.Store
	Notifications *notifications.Store
	Audit         *auditlog.Logger
	Log           *zap.Logger
}

type requestRequest struct {
	PartnerID string `json:"partner_id"`
	Message   string `json:"message"`
}

// partnershipView is a partnership joined with the counterpart's
// profile, which is what the partner list screens render.
type partnershipView struct {
	models.Partnership
	Partner *models.User `json:"partner,omitempty"`
}

// Request handles POST /api/partners/requests.
func (h *Handler) Request(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	var req requestRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if req.PartnerID == "" {
		apierrors.BadRequest(w, "partner_id is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "partner request")
	defer cancel()

	// The target must have a profile; an identity without one is not
	// visible to other users yet.
	target, err := h.Profiles.GetByID(ctx, req.PartnerID)
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "user not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "partner request: lookup target", err)
		return
	}

	p, err := h.Partnerships.Request(ctx, u.ID, target.ID, strings.TrimSpace(req.Message))
	if err == partnerstore.ErrAlreadyLinked {
		apierrors.Conflict(w, err.Error())
		return
	}
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	h.notify(ctx, target.ID, models.NotifyPartnerRequest, u.ID,
		u.Name+" sent you a partner request")

	apierrors.WriteJSON(w, http.StatusCreated, p)
}

// List handles GET /api/partners?status=. Results carry the
// counterpart's profile when one exists.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "partner list")
	defer cancel()

	rows, err := h.Partnerships.ListForUser(ctx, u.ID, query.Get(r, "status"))
	if err != nil {
		apierrors.Internal(w, h.Log, "partner list", err)
		return
	}

	ids := make([]string, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.Counterpart(u.ID))
	}
	people, err := h.Profiles.GetMany(ctx, ids)
	if err != nil {
		apierrors.Internal(w, h.Log, "partner list: load profiles", err)
		return
	}

	views := make([]partnershipView, 0, len(rows))
	for _, p := range rows {
		v := partnershipView{Partnership: p}
		if prof, ok := people[p.Counterpart(u.ID)]; ok {
			v.Partner = &prof
		}
		views = append(views, v)
	}
	apierrors.WriteJSON(w, http.StatusOK, views)
}

// Accept handles POST /api/partners/{id}/accept. Only the receiving
// side of a pending request may accept it.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "request not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "partner accept")
	defer cancel()

	p, err := h.Partnerships.Accept(ctx, id, u.ID)
	if err == partnerstore.ErrNotPending {
		apierrors.NotFound(w, "no pending request to accept")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "partner accept", err)
		return
	}

	h.notify(ctx, p.RequesterID, models.NotifyPartnerAccepted, u.ID,
		u.Name+" accepted your partner request")
	h.Audit.PartnershipCreated(ctx, r, u.ID, p.RequesterID)

	apierrors.WriteJSON(w, http.StatusOK, p)
}

// Decline handles POST /api/partners/{id}/decline.
func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "request not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "partner decline")
	defer cancel()

	if err := h.Partnerships.Decline(ctx, id, u.ID); err != nil {
		if err == partnerstore.ErrNotPending {
			apierrors.NotFound(w, "no pending request to decline")
			return
		}
		apierrors.Internal(w, h.Log, "partner decline", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// End handles DELETE /api/partners/{id}. Either participant may end an
// active partnership.
func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "partnership not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "partner end")
	defer cancel()

	p, err := h.Partnerships.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "partnership not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "partner end: lookup", err)
		return
	}

	n, err := h.Partnerships.End(ctx, id, u.ID)
	if err != nil {
		apierrors.Internal(w, h.Log, "partner end", err)
		return
	}
	if n == 0 {
		apierrors.NotFound(w, "partnership not found")
		return
	}

	h.Audit.PartnershipEnded(ctx, r, u.ID, p.Counterpart(u.ID))
	w.WriteHeader(http.StatusNoContent)
}

type checkInRequest struct {
	NextCheckIn time.Time `json:"next_check_in"`
}

// SetCheckIn handles PUT /api/partners/{id}/checkin.
func (h *Handler) SetCheckIn(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apierrors.NotFound(w, "partnership not found")
		return
	}

	var req checkInRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if req.NextCheckIn.IsZero() || req.NextCheckIn.Before(time.Now()) {
		apierrors.BadRequest(w, "next_check_in must be in the future")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "partner checkin")
	defer cancel()

	if err := h.Partnerships.SetNextCheckIn(ctx, id, u.ID, req.NextCheckIn); err != nil {
		if err == mongo.ErrNoDocuments {
			apierrors.NotFound(w, "partnership not found")
			return
		}
		apierrors.Internal(w, h.Log, "partner checkin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// suggestion is a candidate partner scored by interest overlap.
type suggestion struct {
	User          models.User `json:"user"`
	Compatibility int         `json:"compatibility"`
}

// Suggestions handles GET /api/partners/suggestions. Candidates are
// scored by shared interests; existing partners and open requests are
// excluded.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "partner suggestions")
	defer cancel()

	me, err := h.Profiles.GetByID(ctx, u.ID)
	if err == mongo.ErrNoDocuments {
		apierrors.NotFound(w, "profile not found")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "partner suggestions: own profile", err)
		return
	}

	linked, err := h.Partnerships.ListForUser(ctx, u.ID, "")
	if err != nil {
		apierrors.Internal(w, h.Log, "partner suggestions: links", err)
		return
	}
	taken := make(map[string]bool, len(linked))
	for _, p := range linked {
		if p.Status != models.PartnershipDeclined {
			taken[p.Counterpart(u.ID)] = true
		}
	}

	candidates, err := h.Profiles.SearchByName(ctx, "", u.ID, 50)
	if err != nil {
		apierrors.Internal(w, h.Log, "partner suggestions: candidates", err)
		return
	}

	out := make([]suggestion, 0, len(candidates))
	for _, c := range candidates {
		if taken[c.ID] {
			continue
		}
		out = append(out, suggestion{User: c, Compatibility: compatibility(me.Interests, c.Interests)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Compatibility > out[j].Compatibility })
	if len(out) > 10 {
		out = out[:10]
	}
	apierrors.WriteJSON(w, http.StatusOK, out)
}

// compatibility scores shared interests as a percentage of the union.
// Two users with no interests at all score zero.
func compatibility(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[strings.ToLower(strings.TrimSpace(s))] = true
	}
	shared := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		k := strings.ToLower(strings.TrimSpace(s))
		if seen[k] {
			continue
		}
		seen[k] = true
		if set[k] {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return shared * 100 / union
}

func (h *Handler) notify(ctx context.Context, userID, kind, actorID, message string) {
	_, err := h.Notifications.Insert(ctx, models.Notification{
		UserID:  userID,
		Kind:    kind,
		Message: message,
		ActorID: actorID,
	})
	if err != nil {
		h.Log.Warn("partner notify", zap.Error(err), zap.String("user_id", userID), zap.String("kind", kind))
	}
}
