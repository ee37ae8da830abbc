// internal/app/system/auth/auth.go

// Package auth verifies bearer tokens issued by the auth API and places
// the resulting SessionUser into the request context. Browser clients
// that cannot hold a bearer token get the same token inside an HttpOnly
// cookie session; both paths converge on the same verification.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// tokenKey is the cookie-session value holding the bearer token for
	// browser clients.
	tokenKey = "access_token"
)

// SessionUser is what we cache per request and inject into r.Context().
type SessionUser struct {
	ID    string
	Name  string
	Email string
}

// UserFetcher loads fresh user data for an identity id on each request,
// so profile updates and disabled accounts take effect immediately.
// Returning (nil, nil) means the identity has no profile yet; the
// middleware falls back to the token's identity fields.
type UserFetcher interface {
	Fetch(ctx context.Context, id string) (*SessionUser, error)
}

// TokenChecker reports whether a token id (jti) is still live. Revoked
// and expired-by-deletion tokens fail the check.
type TokenChecker interface {
	IsLive(ctx context.Context, jti string) (bool, error)
}

// SessionManager owns token verification and the cookie fallback.
type SessionManager struct {
	log        *zap.Logger
	issuer     *TokenIssuer
	cookies    *sessions.CookieStore
	cookieName string

	fetcher UserFetcher
	checker TokenChecker
}

// NewSessionManager builds a SessionManager. signingKey signs bearer
// tokens and cookie sessions; it must be at least 32 chars in
// production. The secure flag controls cookie Secure/SameSite handling
// the same way it does for any cross-site deployment.
func NewSessionManager(signingKey, cookieName, cookieDomain string, tokenTTL time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is empty; provide 32+ random chars")
	}
	if len(signingKey) < 32 {
		logger.Warn("signing key is short; 32+ chars recommended",
			zap.Int("length", len(signingKey)))
	}

	store := sessions.NewCookieStore([]byte(signingKey))
	opts := &sessions.Options{
		Domain:   cookieDomain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		MaxAge:   int(tokenTTL / time.Second),
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	return &SessionManager{
		log:        logger,
		issuer:     NewTokenIssuer(signingKey, tokenTTL),
		cookies:    store,
		cookieName: cookieName,
	}, nil
}

// Issuer exposes the token issuer for the auth API handlers.
func (sm *SessionManager) Issuer() *TokenIssuer { return sm.issuer }

// SetUserFetcher installs the per-request user loader.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// SetTokenChecker installs the revocation check.
func (sm *SessionManager) SetTokenChecker(c TokenChecker) { sm.checker = c }

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user from the request context.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user into the request context. Test helper;
// production code goes through LoadSessionUser.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// LoadSessionUser resolves the bearer token (Authorization header first,
// cookie session second) and injects the SessionUser into context. An
// absent or invalid token is not an error here; gating happens in
// RequireSignedIn.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = sm.cookieToken(r)
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := sm.issuer.Verify(token)
		if err != nil {
			sm.log.Debug("token verify failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if sm.checker != nil {
			live, err := sm.checker.IsLive(r.Context(), claims.ID)
			if err != nil {
				sm.log.Error("token liveness check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !live {
				next.ServeHTTP(w, r)
				return
			}
		}

		u := &SessionUser{ID: claims.Subject, Email: claims.Email}
		if sm.fetcher != nil {
			fresh, err := sm.fetcher.Fetch(r.Context(), claims.Subject)
			if err != nil {
				sm.log.Warn("session user fetch failed, using token identity",
					zap.Error(err),
					zap.String("user_id", claims.Subject))
			} else if fresh != nil {
				u = fresh
			}
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser) and answers 401 JSON otherwise.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})
}

// SaveTokenCookie stores the bearer token in the cookie session for
// browser clients.
func (sm *SessionManager) SaveTokenCookie(w http.ResponseWriter, r *http.Request, token string) error {
	sess, err := sm.cookies.Get(r, sm.cookieName)
	if err != nil {
		// Decode failures fall back to a fresh session.
		sm.log.Warn("cookie session decode failed, using fresh session", zap.Error(err))
	}
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// ClearCookie expires the cookie session.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.cookies.Get(r, sm.cookieName)
	if err != nil {
		sm.log.Warn("cookie session decode failed during clear", zap.Error(err))
	}
	if opts := sm.cookies.Options; opts != nil {
		sess.Options.Domain = opts.Domain
		sess.Options.Path = opts.Path
		sess.Options.Secure = opts.Secure
		sess.Options.HttpOnly = opts.HttpOnly
		sess.Options.SameSite = opts.SameSite
	}
	sess.Options.MaxAge = -1 // delete immediately
	delete(sess.Values, tokenKey)
	return sess.Save(r, w)
}

func (sm *SessionManager) cookieToken(r *http.Request) string {
	sess, err := sm.cookies.Get(r, sm.cookieName)
	if err != nil {
		return ""
	}
	if tok, ok := sess.Values[tokenKey].(string); ok {
		return tok
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}
