package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"recallrelay/internal/bootstrap/config"
	"recallrelay/internal/bootstrap/database"
	"recallrelay/internal/bootstrap/logging"
	"recallrelay/internal/errs"
	sqliterepo "recallrelay/internal/infrastructure/persistence/sqlite/repository"
)

type App struct {
	Config  config.Config
	DB      *gorm.DB
	Recalls *sqliterepo.RecallRepository
	State   *sqliterepo.SyncStateRepository
}

func New(ctx context.Context, configFile string) (*App, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "loading application config", slog.String("config_file", configFile))

	cfg, err := config.Load(logCtx, configFile)
	if err != nil {
		return nil, errs.Wrap(err, "load config")
	}

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, errs.Wrap(err, "open database")
	}

	logging.Info(logCtx, "application bootstrap completed", slog.String("database_driver", cfg.Database.Driver))

	return &App{
		Config:  cfg,
		DB:      db,
		Recalls: sqliterepo.NewRecallRepository(db),
		State:   sqliterepo.NewSyncStateRepository(db),
	}, nil
}

// InitSchema creates the reports table and the sync_state table when they are missing.
// Existing rows are left alone.
func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.Recalls.EnsureSchema(ctx); err != nil {
		return errs.Wrap(err, "ensure reports table")
	}
	if err := a.State.EnsureSchema(ctx); err != nil {
		return errs.Wrap(err, "ensure sync_state table")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

// Target describes where rows are written, without credentials.
func (a *App) Target() string {
	if a.Config.Database.Driver == config.DriverLibSQL {
		return database.RedactURL(a.Config.Database.URL)
	}
	return a.Config.Database.DSN
}

func (a *App) Close(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	sqlDB, err := a.DB.DB()
	if err != nil {
		return errs.Wrap(err, "get sql db")
	}

	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(err, "close sql db")
	}

	logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.app")), "database connection closed")
	return nil
}
