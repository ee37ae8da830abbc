// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/accord/internal/app/store/audit"
	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	notifstore "github.com/dalemusser/accord/internal/app/store/notifications"
	"github.com/dalemusser/accord/internal/app/store/oauthstate"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	statstore "github.com/dalemusser/accord/internal/app/store/stats"
	"github.com/dalemusser/accord/internal/app/store/tokens"
	"github.com/dalemusser/accord/internal/app/system/tasks"
	"github.com/dalemusser/accord/internal/app/system/workers"
)

// Background workers started here are stopped in Shutdown.
var (
	jobRunner   *tasks.Runner
	statsWorker *workers.StatsRecompute
)

// Startup launches the periodic maintenance jobs and the dashboard
// stats recompute worker. It runs after DB connections and index
// builds are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	goals := goalstore.New(db)
	notifs := notifstore.New(db)

	jobRunner = tasks.NewRunner(logger)
	jobRunner.Add(
		tasks.TokenCleanupJob(tokens.New(db), logger),
		tasks.OAuthStateCleanupJob(oauthstate.New(db), logger),
		tasks.GoalSweepJob(goals, notifs, logger),
		tasks.CheckInReminderJob(partnerstore.New(db), notifs, logger),
		tasks.RetentionJob(audit.New(db), notifs, appCfg.AuditRetention, logger),
	)
	jobRunner.Start()

	statsWorker = workers.NewStatsRecompute(
		statstore.New(db), goals, loginstore.New(db), logger, appCfg.RecomputeInterval)
	statsWorker.Start()

	return nil
}
