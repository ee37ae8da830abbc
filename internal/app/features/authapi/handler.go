// internal/app/features/authapi/handler.go

// Package authapi implements the credential endpoints: signup, signin,
// signout, and the session probe clients call at startup.
package authapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/accord/internal/app/features/apierrors"
	"github.com/dalemusser/accord/internal/app/store/identities"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	"github.com/dalemusser/accord/internal/app/store/tokens"
	"github.com/dalemusser/accord/internal/app/system/auditlog"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/metrics"
	"github.com/dalemusser/accord/internal/app/system/normalize"
	"github.com/dalemusser/accord/internal/app/system/ratelimit"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler holds the auth API dependencies.
type Handler struct {
	Identities *identities.Store
	Tokens     *tokens.Store
	Logins     *loginstore.Store
	Sessions   *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger
	Metrics    *metrics.Collector
	Log        *zap.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      sessionUserResponse `json:"user"`
}

// Signup handles POST /api/auth/signup. It creates the identity record
// and issues a token; the client creates the profile and stats records
// afterwards through the profile API.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" || req.Password == "" {
		apierrors.BadRequest(w, "email and password are required")
		return
	}
	if len(req.Password) < 8 {
		apierrors.BadRequest(w, "password must be at least 8 characters")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "signup")
	defer cancel()

	ident, err := h.Identities.Create(ctx, req.Email, req.Password, models.ProviderPassword)
	if err == identities.ErrDuplicateEmail {
		apierrors.Conflict(w, err.Error())
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "signup: create identity", err)
		return
	}

	resp, err := h.issueToken(r, &ident)
	if err != nil {
		apierrors.Internal(w, h.Log, "signup: issue token", err)
		return
	}

	h.Audit.Signup(ctx, r, ident.ID.Hex(), ident.Provider, ident.Email)
	h.Metrics.RecordSignup()

	apierrors.WriteJSON(w, http.StatusCreated, resp)
}

// Signin handles POST /api/auth/signin.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := apierrors.DecodeJSON(r, &req); err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}
	req.Email = normalize.Email(req.Email)
	if req.Email == "" || req.Password == "" {
		apierrors.BadRequest(w, "email and password are required")
		return
	}

	if ok, reason := h.Limiter.Check(r, req.Email); !ok {
		h.Audit.SigninFailedRateLimit(r.Context(), r, req.Email)
		h.Metrics.RecordSigninFailure("rate_limited")
		apierrors.TooManyRequests(w, reason)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "signin")
	defer cancel()

	ident, err := h.Identities.GetByEmail(ctx, req.Email)
	if err == mongo.ErrNoDocuments {
		h.Audit.SigninFailedNotFound(ctx, r, req.Email)
		h.Metrics.RecordSigninFailure("bad_credentials")
		apierrors.Write(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		apierrors.Internal(w, h.Log, "signin: lookup identity", err)
		return
	}

	if !h.Identities.VerifyPassword(ident, req.Password) {
		h.Audit.SigninFailedWrongPassword(ctx, r, ident.ID.Hex(), ident.Email)
		h.Metrics.RecordSigninFailure("bad_credentials")
		apierrors.Write(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if ident.Status == models.IdentityDisabled {
		h.Audit.SigninFailedDisabled(ctx, r, ident.ID.Hex(), ident.Email)
		h.Metrics.RecordSigninFailure("disabled")
		apierrors.Write(w, http.StatusForbidden, "account is disabled")
		return
	}

	resp, err := h.issueToken(r, ident)
	if err != nil {
		apierrors.Internal(w, h.Log, "signin: issue token", err)
		return
	}

	h.Limiter.ResetEmail(ident.Email)
	if err := h.Logins.CreateFrom(ctx, r, ident.ID.Hex(), ident.Provider); err != nil {
		h.Log.Warn("signin: record login history", zap.Error(err))
	}
	h.Audit.SigninSuccess(ctx, r, ident.ID.Hex(), ident.Provider, ident.Email)
	h.Metrics.RecordSigninSuccess()

	apierrors.WriteJSON(w, http.StatusOK, resp)
}

// Signout handles POST /api/auth/signout. It revokes the presented
// token and clears the cookie session. An absent or invalid token is
// still a successful sign-out.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "signout")
	defer cancel()

	if token := bearerToken(r); token != "" {
		if claims, err := h.Sessions.Issuer().Verify(token); err == nil {
			if err := h.Tokens.Revoke(ctx, claims.ID); err != nil {
				apierrors.Internal(w, h.Log, "signout: revoke token", err)
				return
			}
			h.Audit.Signout(ctx, r, claims.Subject)
			h.Metrics.RecordTokenRevoked()
		}
	}
	if err := h.Sessions.ClearCookie(w, r); err != nil {
		h.Log.Warn("signout: clear cookie", zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

type sessionResponse struct {
	Authenticated bool                 `json:"authenticated"`
	User          *sessionUserResponse `json:"user,omitempty"`
}

// Session handles GET /api/auth/session, the probe clients issue at
// startup to resolve the unknown auth state.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}
	apierrors.WriteJSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          &sessionUserResponse{ID: u.ID, Email: u.Email},
	})
}

// issueToken mints a bearer token for the identity, records it for
// revocation, and mirrors it into the cookie session for browsers.
func (h *Handler) issueToken(r *http.Request, ident *models.Identity) (tokenResponse, error) {
	token, jti, expiresAt, err := h.Sessions.Issuer().Issue(ident.ID.Hex(), ident.Email)
	if err != nil {
		return tokenResponse{}, err
	}
	if err := h.Tokens.Insert(r.Context(), jti, ident.ID, time.Now().UTC(), expiresAt); err != nil {
		return tokenResponse{}, err
	}
	h.Metrics.RecordTokenIssued()

	return tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      sessionUserResponse{ID: ident.ID.Hex(), Email: ident.Email},
	}, nil
}

func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
