package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"recallrelay/internal/bootstrap/config"
	"recallrelay/internal/bootstrap/logging"
	"recallrelay/internal/errs"
)

// Open returns the store handle for the configured driver. The handle is injected into
// repositories; nothing keeps a package-level reference to it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.database"))
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch strings.ToLower(cfg.Driver) {
	case config.DriverSQLite, "sqlite3":
		if err := ensureSQLiteDirectory(logCtx, cfg.DSN); err != nil {
			return nil, errs.Wrap(err, "ensure sqlite directory")
		}

		db, err := gorm.Open(gormsqlite.Open(cfg.DSN), gormCfg)
		if err != nil {
			return nil, errs.Wrap(err, "open sqlite db")
		}
		logging.Info(logCtx, "database opened", slog.String("driver", "sqlite"), slog.String("dsn", cfg.DSN))
		return db, nil
	case config.DriverLibSQL:
		dsn, err := libsqlDSN(cfg.URL, cfg.AuthToken)
		if err != nil {
			return nil, err
		}

		conn, err := sql.Open("libsql", dsn)
		if err != nil {
			return nil, errs.Wrap(err, "open libsql connection")
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, errs.Wrap(err, "ping libsql")
		}

		db, err := gorm.Open(gormsqlite.Dialector{Conn: conn}, gormCfg)
		if err != nil {
			_ = conn.Close()
			return nil, errs.Wrap(err, "open libsql db")
		}
		logging.Info(logCtx, "database opened", slog.String("driver", "libsql"), slog.String("url", RedactURL(cfg.URL)))
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// libsqlDSN appends the auth token as the authToken query parameter. An empty token is
// allowed; local sqld instances accept unauthenticated connections.
func libsqlDSN(rawURL string, authToken string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", errs.Wrap(err, "parse database url")
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("database url %q must include scheme and host", rawURL)
	}

	if token := strings.TrimSpace(authToken); token != "" {
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// RedactURL drops the query string and user info, where auth tokens live.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

func ensureSQLiteDirectory(ctx context.Context, dsn string) error {
	candidate := strings.TrimSpace(dsn)
	if candidate == "" || candidate == ":memory:" {
		return nil
	}

	if strings.HasPrefix(strings.ToLower(candidate), "file:") {
		candidate = strings.TrimPrefix(candidate, "file:")
	}
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}
	if candidate == "" || candidate == ":memory:" {
		return nil
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Wrapf(err, "create sqlite directory %q", dir)
	}

	logging.Debug(ctx, "sqlite directory ensured", slog.String("dir", dir))
	return nil
}
