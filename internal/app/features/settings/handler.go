// internal/app/features/settings/handler.go

// Package settings implements account self-service: password changes
// and account deletion.
package settings

import (
	"net/http"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	"github.com/dalemusser/accord/internal/app/store/identities"
	"github.com/dalemusser/accord/internal/app/store/profiles"
	"github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/app/store/tokens"
	"github.com/dalemusser/accord/internal/app/system/auditlog"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the settings endpoint dependencies.
type Handler struct {
	Identities *identities.Store
	Tokens     *tokens.Store
	Profiles   *profiles.Store
	Stats      *stats.Store
	Sessions   *auth.SessionManager
	Audit      *auditlog.Logger
	Log        *zap.Logger
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles PUT /api/settings/password. A successful
// change revokes every outstanding token, so all sessions (including
// the one making the request) must sign in again.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}

	var req changePasswordRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		apierrors.BadRequest(w, "current and new passwords are required")
		return
	}
	if len(req.NewPassword) < 8 {
		apierrors.BadRequest(w, "password must be at least 8 characters")
		return
	}

	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apierrors.Unauthorized(w)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "change password")
	defer cancel()

	ident, err := h.Identities.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierrors.Unauthorized(w)
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "change password: lookup identity", err)
		return
	}
	if ident.Provider != models.ProviderPassword {
		apierrors.Conflict(w, "this account signs in with "+ident.Provider)
		return
	}
	if !h.Identities.VerifyPassword(ident, req.CurrentPassword) {
		apierrors.Write(w, http.StatusForbidden, "current password is incorrect")
		return
	}

	if err := h.Identities.SetPassword(ctx, id, req.NewPassword); err != nil {
		apierrors.Internal(w, h.Log, "change password: set password", err)
		return
	}
	revoked, err := h.Tokens.RevokeAllForIdentity(ctx, id)
	if err != nil {
		apierrors.Internal(w, h.Log, "change password: revoke tokens", err)
		return
	}
	if err := h.Sessions.ClearCookie(w, r); err != nil {
		h.Log.Warn("change password: clear cookie", zap.Error(err))
	}

	h.Audit.PasswordChanged(ctx, r, u.ID, revoked)
	w.WriteHeader(http.StatusNoContent)
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// DeleteAccount handles DELETE /api/settings/account. The identity,
// profile, and stats records are removed and every token revoked. Goal
// and partnership history is left in place so partners keep theirs.
// Password accounts must confirm with the current password; OAuth
// accounts have no credential to confirm with.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Unauthorized(w)
		return
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apierrors.Unauthorized(w)
		return
	}

	var req deleteAccountRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete account")
	defer cancel()

	ident, err := h.Identities.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		apierrors.Unauthorized(w)
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "delete account: lookup identity", err)
		return
	}
	if ident.Provider == models.ProviderPassword {
		if req.Password == "" {
			apierrors.BadRequest(w, "password is required to delete the account")
			return
		}
		if !h.Identities.VerifyPassword(ident, req.Password) {
			apierrors.Write(w, http.StatusForbidden, "password is incorrect")
			return
		}
	}

	if _, err := h.Tokens.RevokeAllForIdentity(ctx, id); err != nil {
		apierrors.Internal(w, h.Log, "delete account: revoke tokens", err)
		return
	}
	if _, err := h.Profiles.Delete(ctx, u.ID); err != nil {
		apierrors.Internal(w, h.Log, "delete account: remove profile", err)
		return
	}
	if _, err := h.Stats.Delete(ctx, u.ID); err != nil {
		apierrors.Internal(w, h.Log, "delete account: remove stats", err)
		return
	}
	if _, err := h.Identities.Delete(ctx, id); err != nil {
		apierrors.Internal(w, h.Log, "delete account: remove identity", err)
		return
	}
	if err := h.Sessions.ClearCookie(w, r); err != nil {
		h.Log.Warn("delete account: clear cookie", zap.Error(err))
	}

	h.Audit.AccountDeleted(ctx, r, u.ID, ident.Provider)
	w.WriteHeader(http.StatusNoContent)
}
