package bootstrap

import (
	"context"
	"log/slog"
	"net/http"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"recallrelay/internal/bootstrap/config"
	"recallrelay/internal/bootstrap/database"
	"recallrelay/internal/bootstrap/logging"
	sqliterepo "recallrelay/internal/infrastructure/persistence/sqlite/repository"
	"recallrelay/internal/infrastructure/snapshot"
	"recallrelay/internal/infrastructure/upstream"
	"recallrelay/internal/ports"
	"recallrelay/internal/usecase/relay"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(sqliterepo.NewRecallRepository),
	fx.Provide(sqliterepo.NewSyncStateRepository),
	fx.Provide(provideApp),
	fx.Provide(provideHTTPClient),
	fx.Provide(
		fx.Annotate(
			provideFDAClient,
			fx.As(new(ports.FDASource)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideUSDAClient,
			fx.As(new(ports.SnapshotFetcher)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideSnapshotStore,
			fx.As(new(ports.SnapshotStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			relay.NewService,
			fx.From(
				new(*sqliterepo.RecallRepository),
				new(*sqliterepo.SyncStateRepository),
				new(ports.FDASource),
				new(ports.SnapshotFetcher),
				new(ports.SnapshotStore),
			),
		),
	),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(
	cfg config.Config,
	db *gorm.DB,
	recalls *sqliterepo.RecallRepository,
	state *sqliterepo.SyncStateRepository,
) *App {
	return &App{
		Config:  cfg,
		DB:      db,
		Recalls: recalls,
		State:   state,
	}
}

func provideHTTPClient(cfg config.Config) *http.Client {
	return upstream.NewHTTPClient(cfg.Upstream.Timeout)
}

func provideFDAClient(client *http.Client, cfg config.Config) *upstream.FDAClient {
	return upstream.NewFDAClient(client, cfg.FDA.BaseURL, cfg.FDA.Limit, cfg.Upstream.UserAgent)
}

func provideUSDAClient(client *http.Client, cfg config.Config) *upstream.USDAClient {
	return upstream.NewUSDAClient(client, cfg.USDA.BaseURL, cfg.Upstream.UserAgent)
}

func provideSnapshotStore(cfg config.Config) (*snapshot.FileStore, error) {
	return snapshot.NewFileStore(cfg.USDA.SnapshotPath)
}
