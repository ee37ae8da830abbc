// internal/app/features/authgoogle/handler.go

// Package authgoogle implements Google OAuth sign-in. The flow is
// browser-driven: /api/auth/google redirects to Google's consent
// screen, and the callback exchanges the code, resolves or provisions
// the identity, issues a token into the cookie session, and redirects
// back into the app.
package authgoogle

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/accord/internal/app/store/identities"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	"github.com/dalemusser/accord/internal/app/store/oauthstate"
	"github.com/dalemusser/accord/internal/app/store/tokens"
	"github.com/dalemusser/accord/internal/app/system/auditlog"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/metrics"
	"github.com/dalemusser/accord/internal/app/system/timeouts"
	"github.com/dalemusser/accord/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Handler struct {
	Identities *identities.Store
	Tokens     *tokens.Store
	Logins     *loginstore.Store
	StateStore *oauthstate.Store
	Sessions   *auth.SessionManager
	Audit      *auditlog.Logger
	Metrics    *metrics.Collector
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://accord.example.com/api/auth/google/callback"
}

func NewHandler(
	ident *identities.Store,
	tok *tokens.Store,
	logins *loginstore.Store,
	state *oauthstate.Store,
	sessions *auth.SessionManager,
	audit *auditlog.Logger,
	collector *metrics.Collector,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Identities:   ident,
		Tokens:       tok,
		Logins:       logins,
		StateStore:   state,
		Sessions:     sessions,
		Audit:        audit,
		Metrics:      collector,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/api/auth/google/callback",
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured reports whether Google sign-in credentials are present.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /api/auth/google. It parks a CSRF state with a
// ten-minute expiry and redirects to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, "/?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(10 * time.Minute)
	if err := h.StateStore.Save(ctx, state, query.Get(r, "return"), expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}

	url := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /api/auth/google/callback. A Google account
// without an identity gets one provisioned with the google provider;
// the profile record is created later by the client's register flow.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.Audit.GoogleSigninFailed(ctx, r, "consent denied")
		http.Redirect(w, r, "/?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, "/?error=invalid_state", http.StatusSeeOther)
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.Audit.GoogleSigninFailed(ctx, r, "invalid state")
		http.Redirect(w, r, "/?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, "/?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.Audit.GoogleSigninFailed(ctx, r, "code exchange failed")
		http.Redirect(w, r, "/?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.Audit.GoogleSigninFailed(ctx, r, "userinfo fetch failed")
		http.Redirect(w, r, "/?error=user_info", http.StatusSeeOther)
		return
	}
	if !googleUser.EmailVerified {
		h.Log.Warn("Google account email not verified", zap.String("email", googleUser.Email))
		h.Audit.GoogleSigninFailed(ctx, r, "email not verified")
		http.Redirect(w, r, "/?error=email_unverified", http.StatusSeeOther)
		return
	}

	ident, err := h.resolveIdentity(ctxTimeout, googleUser.Email)
	if err != nil {
		h.Log.Error("failed to resolve Google identity", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}
	if ident.Status == models.IdentityDisabled {
		h.Audit.GoogleSigninFailed(ctx, r, "account disabled")
		http.Redirect(w, r, "/?error=account_disabled", http.StatusSeeOther)
		return
	}

	if err := h.issueSession(w, r, ident); err != nil {
		h.Log.Error("failed to issue session after Google sign-in", zap.Error(err))
		http.Redirect(w, r, "/?error=internal", http.StatusSeeOther)
		return
	}

	if err := h.Logins.CreateFrom(ctxTimeout, r, ident.ID.Hex(), models.ProviderGoogle); err != nil {
		h.Log.Warn("google signin: record login history", zap.Error(err))
	}
	h.Audit.GoogleSigninSuccess(ctx, r, ident.ID.Hex(), ident.Email)
	h.Metrics.RecordSigninSuccess()

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

// resolveIdentity finds the identity for a verified Google email,
// provisioning one on first sign-in.
func (h *Handler) resolveIdentity(ctx context.Context, email string) (*models.Identity, error) {
	ident, err := h.Identities.GetByEmail(ctx, email)
	if err == nil {
		return ident, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	created, err := h.Identities.Create(ctx, email, "", models.ProviderGoogle)
	if err == identities.ErrDuplicateEmail {
		// Lost a race with a concurrent first sign-in.
		return h.Identities.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// issueSession mints a bearer token, records it for revocation, and
// mirrors it into the cookie session the browser carries.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, ident *models.Identity) error {
	token, jti, expiresAt, err := h.Sessions.Issuer().Issue(ident.ID.Hex(), ident.Email)
	if err != nil {
		return err
	}
	if err := h.Tokens.Insert(r.Context(), jti, ident.ID, time.Now().UTC(), expiresAt); err != nil {
		return err
	}
	h.Metrics.RecordTokenIssued()
	return h.Sessions.SaveTokenCookie(w, r, token)
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo
// endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", fmt.Errorf("random source unavailable")
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
