// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging level, request limits). AppConfig is everything specific to
// Accord: the MongoDB connection, token signing, rate limits, Google
// OAuth credentials, and background job tuning.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token and cookie-session configuration
	SessionKey    string        // signs bearer tokens and the cookie fallback
	SessionName   string        // cookie name for browser clients
	SessionDomain string        // cookie domain (blank means current host)
	TokenTTL      time.Duration // bearer token lifetime

	// Sign-in rate limiting
	SigninIPLimit     int
	SigninIPWindow    time.Duration
	SigninEmailLimit  int
	SigninEmailWindow time.Duration

	// Google OAuth configuration (sign-in is disabled when unset)
	GoogleClientID     string
	GoogleClientSecret string

	// Base URL for OAuth callbacks (e.g. "https://accord.example.com")
	BaseURL string

	// Audit logging settings: "all" (db+log), "db", "log", or "off"
	AuditLogAuth    string
	AuditLogAccount string

	// Background job tuning
	AuditRetention    time.Duration // how long audit events and read notifications are kept
	RecomputeInterval time.Duration // dashboard stats recompute cadence
}
