// internal/app/system/auditlog/logger.go

// Package auditlog records security-relevant events to MongoDB and
// structured logs. Auth handlers call the typed helpers; where an event
// goes is controlled per category by Config ("all", "db", "log", "off").
package auditlog

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/accord/internal/app/store/audit"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (signin, signout,
	// signup, token revocation).
	Auth string
	// Account controls logging for account events (profile updates,
	// partnership changes).
	Account string
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		fields = append(fields, zap.String("actor_id", event.ActorID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAccount:
		setting = l.config.Account
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// SigninSuccess logs a successful sign-in.
func (l *Logger) SigninSuccess(ctx context.Context, r *http.Request, userID, provider, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSigninSuccess,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"provider": provider,
			"email":    email,
		},
	})
}

// SigninFailedNotFound logs a sign-in attempt for an unknown account.
func (l *Logger) SigninFailedNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSigninFailedNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "account not found",
		Details: map[string]string{
			"attempted_email": attemptedEmail,
		},
	})
}

// SigninFailedWrongPassword logs a sign-in with a bad password.
func (l *Logger) SigninFailedWrongPassword(ctx context.Context, r *http.Request, userID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSigninFailedPassword,
		UserID:        userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong password",
		Details: map[string]string{
			"email": email,
		},
	})
}

// SigninFailedDisabled logs a sign-in against a disabled account.
func (l *Logger) SigninFailedDisabled(ctx context.Context, r *http.Request, userID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSigninFailedDisabled,
		UserID:        userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "account disabled",
		Details: map[string]string{
			"email": email,
		},
	})
}

// SigninFailedRateLimit logs a sign-in blocked by rate limiting.
func (l *Logger) SigninFailedRateLimit(ctx context.Context, r *http.Request, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventSigninFailedRateLimit,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "rate limit exceeded",
		Details: map[string]string{
			"email": email,
		},
	})
}

// Signout logs a sign-out.
func (l *Logger) Signout(ctx context.Context, r *http.Request, userID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// Signup logs an account creation.
func (l *Logger) Signup(ctx context.Context, r *http.Request, userID, provider, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventSignup,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"provider": provider,
			"email":    email,
		},
	})
}

// GoogleSigninSuccess logs a successful Google sign-in.
func (l *Logger) GoogleSigninSuccess(ctx context.Context, r *http.Request, userID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventGoogleSigninSuccess,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// GoogleSigninFailed logs a failed Google sign-in callback.
func (l *Logger) GoogleSigninFailed(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventGoogleSigninFailed,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// TokenRevoked logs a bearer token revocation outside normal sign-out.
func (l *Logger) TokenRevoked(ctx context.Context, r *http.Request, userID, jti string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventTokenRevoked,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"jti": jti,
		},
	})
}

// --- Account Events ---

// ProfileUpdated logs a profile edit.
func (l *Logger) ProfileUpdated(ctx context.Context, r *http.Request, userID, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventProfileUpdated,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"fields_changed": fieldsChanged,
		},
	})
}

// PasswordChanged logs a password change. The caller revokes every
// outstanding token alongside.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID string, tokensRevoked int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventPasswordChanged,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"tokens_revoked": fmt.Sprintf("%d", tokensRevoked),
		},
	})
}

// AccountDeleted logs an account deletion.
func (l *Logger) AccountDeleted(ctx context.Context, r *http.Request, userID, provider string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventAccountDeleted,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"provider": provider,
		},
	})
}

// PartnershipCreated logs an accepted partnership.
func (l *Logger) PartnershipCreated(ctx context.Context, r *http.Request, userID, partnerID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventPartnershipCreated,
		UserID:    userID,
		ActorID:   partnerID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// PartnershipEnded logs a partnership removal.
func (l *Logger) PartnershipEnded(ctx context.Context, r *http.Request, userID, partnerID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventPartnershipEnded,
		UserID:    userID,
		ActorID:   partnerID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}
