// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/dalemusser/accord/internal/app/store/audit"
	catalogstore "github.com/dalemusser/accord/internal/app/store/catalog"
	goalstore "github.com/dalemusser/accord/internal/app/store/goals"
	"github.com/dalemusser/accord/internal/app/store/identities"
	loginstore "github.com/dalemusser/accord/internal/app/store/logins"
	notifstore "github.com/dalemusser/accord/internal/app/store/notifications"
	"github.com/dalemusser/accord/internal/app/store/oauthstate"
	partnerstore "github.com/dalemusser/accord/internal/app/store/partnerships"
	"github.com/dalemusser/accord/internal/app/store/profiles"
	"github.com/dalemusser/accord/internal/app/store/tokens"
)

// ConnectDB establishes the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongodb ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store depends on. Index builds
// are idempotent, so this runs unconditionally on each startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	indexed := []struct {
		name   string
		ensure func(context.Context) error
	}{
		{"identities", identities.New(db).EnsureIndexes},
		{"tokens", tokens.New(db).EnsureIndexes},
		{"profiles", profiles.New(db).EnsureIndexes},
		{"goals", goalstore.New(db).EnsureIndexes},
		{"partnerships", partnerstore.New(db).EnsureIndexes},
		{"catalog", catalogstore.New(db).EnsureIndexes},
		{"notifications", notifstore.New(db).EnsureIndexes},
		{"logins", loginstore.New(db).EnsureIndexes},
		{"oauth_states", oauthstate.New(db).EnsureIndexes},
		{"audit", audit.New(db).EnsureIndexes},
	}

	for _, s := range indexed {
		if err := s.ensure(ctx); err != nil {
			return fmt.Errorf("ensure indexes for %s: %w", s.name, err)
		}
	}

	logger.Info("database indexes ensured", zap.Int("stores", len(indexed)))
	return nil
}
