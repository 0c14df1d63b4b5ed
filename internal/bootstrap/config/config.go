package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"recallrelay/internal/bootstrap/logging"
	"recallrelay/internal/errs"
)

const (
	DriverSQLite = "sqlite"
	DriverLibSQL = "libsql"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	FDA      FDAConfig      `mapstructure:"fda"`
	USDA     USDAConfig     `mapstructure:"usda"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects the store. sqlite uses DSN; libsql uses URL and AuthToken.
type DatabaseConfig struct {
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

type ServerConfig struct {
	Host         string  `mapstructure:"host"`
	Port         string  `mapstructure:"port"`
	TriggerRate  float64 `mapstructure:"trigger_rate"`
	TriggerBurst int     `mapstructure:"trigger_burst"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type UpstreamConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type FDAConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Limit   int    `mapstructure:"limit"`
}

type USDAConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// legacyEnv maps the variable names used by existing deployments onto config keys.
var legacyEnv = map[string]string{
	"database.url":        "TURSO_DATABASE_URL",
	"database.auth_token": "TURSO_AUTH_TOKEN",
	"server.port":         "PORT",
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "RELAY_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, errs.Wrapf(err, "bind env %s", env)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("database_auth_token_set", cfg.Database.AuthToken != ""),
	)

	return cfg, nil
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		// A Turso URL alone selects the remote store.
		c.Database.Driver = DriverSQLite
		if strings.TrimSpace(c.Database.URL) != "" {
			c.Database.Driver = DriverLibSQL
		}
	}
	switch c.Database.Driver {
	case DriverSQLite, "sqlite3":
		c.Database.Driver = DriverSQLite
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.dsn is required for sqlite")
		}
	case DriverLibSQL, "turso":
		c.Database.Driver = DriverLibSQL
		if strings.TrimSpace(c.Database.URL) == "" {
			return errors.New("database.url is required for libsql")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("server.port is required")
	}
	if c.FDA.Limit < 1 || c.FDA.Limit > 1000 {
		return fmt.Errorf("fda.limit must be between 1 and 1000, got %d", c.FDA.Limit)
	}
	if strings.TrimSpace(c.FDA.BaseURL) == "" {
		return errors.New("fda.base_url is required")
	}
	if strings.TrimSpace(c.USDA.BaseURL) == "" {
		return errors.New("usda.base_url is required")
	}
	if strings.TrimSpace(c.USDA.SnapshotPath) == "" {
		return errors.New("usda.snapshot_path is required")
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "recall-relay")
	v.SetDefault("app.env", "local")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "data/recalls.sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.auth_token", "")
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.trigger_rate", 1.0)
	v.SetDefault("server.trigger_burst", 3)
	v.SetDefault("upstream.timeout", 60*time.Second)
	v.SetDefault("upstream.user_agent", "recall-relay/1.0")
	v.SetDefault("fda.base_url", "https://api.fda.gov/food/enforcement.json")
	v.SetDefault("fda.limit", 100)
	v.SetDefault("usda.base_url", "https://www.fsis.usda.gov/fsis/api/recall/v/1")
	v.SetDefault("usda.snapshot_path", "recalls.json")
}
