// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	authapifeature "github.com/dalemusser/accord/internal/app/features/authapi"
	authgooglefeature "github.com/dalemusser/accord/internal/app/features/authgoogle"
	catalogfeature "github.com/dalemusser/accord/internal/app/features/catalog"
	dashboardfeature "github.com/dalemusser/accord/internal/app/features/dashboard"
	goalsfeature "github.com/dalemusser/accord/internal/app/features/goals"
	healthfeature "github.com/dalemusser/accord/internal/app/features/health"
	notificationsfeature "github.com/dalemusser/accord/internal/app/features/notifications"
	partnersfeature "github.com/dalemusser/accord/internal/app/features/partners"
	profilesfeature "github.com/dalemusser/accord/internal/app/features/profiles"
	settingsfeature "github.com/dalemusser/accord/internal/app/features/settings"
	"github.com/dalemusser/accord/internal/app/store/audit"
	catalogstore "github.com/dalemusser/accord/internal/app/store/catalog"
	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	"github.com/dalemusser/accord/internal/app/store/identities"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	notifstore "github.com/dalemusser/accord/internal/app/store/notifications"
	"github.com/dalemusser/accord/internal/app/store/oauthstate"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	"github.com/dalemusser/accord/internal/app/store/profiles"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/app/store/tokens"
	"github.com/dalemusser/accord/internal/app/system/auditlog"
	"github.com/dalemusser/accord/internal/app/system/auth"
	"github.com/dalemusser/accord/internal/app/system/metrics"
	"github.com/dalemusser/accord/internal/app/system/ratelimit"
)

// profileFetcher loads the signed-in user's profile for each request,
// so name changes take effect immediately. (nil, nil) means the
// identity has no profile record yet; the middleware falls back to the
// token's identity fields.
type profileFetcher struct {
	profiles *profiles.Store
}

func (f profileFetcher) Fetch(ctx context.Context, id string) (*auth.SessionUser, error) {
	u, err := f.profiles.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auth.SessionUser{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// BuildHandler constructs the root HTTP handler for the Accord API.
//
// WAFFLE calls this after configuration, the DB connection, index
// builds, and Startup have completed. It wires every store and feature
// handler, installs the token middleware globally, and mounts the
// feature routers under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	identityStore := identities.New(db)
	tokenStore := tokens.New(db)
	profileStore := profiles.New(db)
	statsStore := statstore.New(db)
	goalStore := goalstore.New(db)
	partnerStore := partnerstore.New(db)
	catalogStore := catalogstore.New(db)
	notifStore := notifstore.New(db)
	loginStore := loginstore.New(db)
	stateStore := oauthstate.New(db)

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(
		appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.TokenTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetUserFetcher(profileFetcher{profiles: profileStore})
	sessionMgr.SetTokenChecker(tokenStore)

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Account: appCfg.AuditLogAccount,
	})

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	limiter := ratelimit.NewLoginLimiterWithConfig(
		appCfg.SigninIPLimit, appCfg.SigninIPWindow,
		appCfg.SigninEmailLimit, appCfg.SigninEmailWindow)

	r := chi.NewRouter()

	r.Use(collector.Middleware)

	// Resolves the bearer token (header or cookie fallback) and loads
	// the current user into the request context.
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler(registry))

	authHandler := &authapifeature.Handler{
		Identities: identityStore,
		Tokens:     tokenStore,
		Logins:     loginStore,
		Sessions:   sessionMgr,
		Limiter:    limiter,
		Audit:      auditLog,
		Metrics:    collector,
		Log:        logger,
	}
	googleHandler := authgooglefeature.NewHandler(
		identityStore, tokenStore, loginStore, stateStore, sessionMgr,
		auditLog, collector,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL,
		logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Mount("/google", authgooglefeature.Routes(googleHandler))
		r.Mount("/", authapifeature.Routes(authHandler))
	})

	profilesHandler := &profilesfeature.Handler{
		Profiles: profileStore,
		Stats:    statsStore,
		Audit:    auditLog,
		Log:      logger,
	}
	goalsHandler := &goalsfeature.Handler{
		Goals: goalStore,
		Stats: statsStore,
		Log:   logger,
	}
	partnersHandler := &partnersfeature.Handler{
		Partnerships:  partnerStore,
		Profiles:      profileStore,
		Notifications: notifStore,
		Audit:         auditLog,
		Log:           logger,
	}
	notificationsHandler := &notificationsfeature.Handler{
		Notifications: notifStore,
		Log:           logger,
	}
	catalogHandler := &catalogfeature.Handler{
		Catalog: catalogStore,
		Log:     logger,
	}
	settingsHandler := &settingsfeature.Handler{
		Identities: identityStore,
		Tokens:     tokenStore,
		Profiles:   profileStore,
		Stats:      statsStore,
		Sessions:   sessionMgr,
		Audit:      auditLog,
		Log:        logger,
	}
	dashboardHandler := &dashboardfeature.Handler{
		Stats:         statsStore,
		Goals:         goalStore,
		Logins:        loginStore,
		Partnerships:  partnerStore,
		Notifications: notifStore,
		Log:           logger,
	}

	courseRoutes, tipRoutes := catalogfeature.Routes(catalogHandler)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Mount("/api/profiles", profilesfeature.Routes(profilesHandler))
		r.Mount("/api/goals", goalsfeature.Routes(goalsHandler))
		r.Mount("/api/partners", partnersfeature.Routes(partnersHandler))
		r.Mount("/api/notifications", notificationsfeature.Routes(notificationsHandler))
		r.Mount("/api/courses", courseRoutes)
		r.Mount("/api/tips", tipRoutes)
		r.Mount("/api/dashboard", dashboardfeature.Routes(dashboardHandler))
		r.Mount("/api/settings", settingsfeature.Routes(settingsHandler))
	})

	return r, nil
}
