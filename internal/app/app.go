// Package app wires configuration into the pipeline and its optional backends.
// Both binaries build on it.
package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/insight-engine/internal/config"
	"github.com/ignite/insight-engine/internal/ingestion"
	"github.com/ignite/insight-engine/internal/narrative"
	"github.com/ignite/insight-engine/internal/pipeline"
	"github.com/ignite/insight-engine/internal/pkg/distlock"
	"github.com/ignite/insight-engine/internal/pkg/logger"
	"github.com/ignite/insight-engine/internal/repository/postgres"
	"github.com/ignite/insight-engine/internal/storage"
)

// App is a fully wired pipeline. DB, Redis, Runs and Locker are nil when not
// configured or unreachable.
type App struct {
	Config   *config.Config
	Engine   *narrative.Engine
	Pipeline *pipeline.Pipeline
	DB       *sql.DB
	Redis    *redis.Client
	Runs     *postgres.RunRepo
	Locker   *distlock.Locker
	// Backends names what is wired per concern, for health output.
	Backends map[string]string
}

// New builds an App. Storage misconfiguration is an error; an unreachable
// database or Redis only disables the features that need them.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	a := &App{Config: cfg, Backends: map[string]string{}}
	a.Engine = narrative.NewEngine(ctx, cfg.Narrative, cfg.AWS)
	a.Backends["narrative"] = string(a.Engine.Mode())

	store, index, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Backends["storage"] = cfg.Storage.Type
	opts := []pipeline.Option{pipeline.WithArtifactStore(store)}
	if index != nil {
		opts = append(opts, pipeline.WithSummaryIndex(index))
		a.Backends["summary_index"] = "dynamodb"
	}

	if cfg.Database.URL != "" {
		a.openDatabase(ctx)
	}
	if a.Runs != nil {
		opts = append(opts, pipeline.WithRunRepository(a.Runs))
		a.Backends["run_history"] = "postgres"
	}

	if cfg.Redis.URL != "" {
		a.openRedis(ctx)
	}
	a.Locker = distlock.NewLocker(a.Redis, a.DB, cfg.Redis.LockTTL())
	a.Backends["locks"] = a.Locker.Backend()

	a.Pipeline = pipeline.New(cfg, a.Engine, opts...)
	return a, nil
}

func (a *App) openDatabase(ctx context.Context) {
	db, err := ingestion.OpenSQL(ctx, "postgres", a.Config.Database.URL)
	if err != nil {
		logger.Warn("database unavailable, run history disabled", "error", err)
		return
	}
	db.SetMaxOpenConns(a.Config.Database.MaxOpenConns)

	runs := postgres.NewRunRepo(db)
	if err := runs.EnsureSchema(ctx); err != nil {
		logger.Warn("run history schema setup failed", "error", err)
		db.Close()
		return
	}
	a.DB, a.Runs = db, runs
	logger.Info("database connected", "max_open_conns", a.Config.Database.MaxOpenConns)
}

func (a *App) openRedis(ctx context.Context) {
	opts, err := redis.ParseURL(a.Config.Redis.URL)
	if err != nil {
		opts = &redis.Options{Addr: a.Config.Redis.URL}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, falling back to database locks", "error", err)
		client.Close()
		return
	}
	a.Redis = client
	logger.Info("redis connected", "addr", opts.Addr)
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
