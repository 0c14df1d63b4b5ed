package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"recallrelay/internal/bootstrap"
	"recallrelay/internal/bootstrap/config"
	"recallrelay/internal/bootstrap/logging"
	"recallrelay/internal/errs"
	"recallrelay/internal/usecase/relay"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP relay",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *relay.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, err := listenAddr(cmd, app.Config.Server)
		if err != nil {
			return err
		}

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		server := &http.Server{
			Addr: addr,
			Handler: newRelayHandler(svc, triggerLimits{
				Rate:  app.Config.Server.TriggerRate,
				Burst: app.Config.Server.TriggerBurst,
			}),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			logging.Info(ctx, "server is running", slog.String("addr", addr), slog.String("target", app.Target()))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errs.Wrap(err, "listen and serve")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logging.Info(ctx, "shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return errs.Wrap(err, "shutdown server")
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			logging.Error(ctx, "server failed", slog.Any("err", errs.Loggable(err)))
			return err
		}
		logging.Info(ctx, "server stopped gracefully")
		return nil
	}),
}

// listenAddr prefers the --addr flag and falls back to server.host:server.port.
func listenAddr(cmd *cobra.Command, server config.ServerConfig) (string, error) {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return "", errs.Wrap(err, "read addr flag")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = server.Addr()
	}
	return addr, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.host:server.port)")
}
