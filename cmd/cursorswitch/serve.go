package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httphandler "github.com/ericfisherdev/cursorswitch/internal/adapter/driving/http"
	"github.com/ericfisherdev/cursorswitch/internal/application"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local JSON API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(a *app) error {
			return serve(ctx, a)
		})
	},
}

func serve(ctx context.Context, a *app) error {
	bus := application.NewEventBus()
	runner := application.NewRunner(cfg.Workers, bus)

	// Saved records changed on disk, by this process or another one.
	go func() {
		err := a.accounts.Watch(ctx, func() {
			bus.Publish(application.Event{Type: application.EventAccountsChanged})
		})
		if err != nil {
			slog.Error("accounts watcher stopped", "dir", a.accounts.Dir(), "error", err)
		}
	}()

	if cfg.RefreshInterval > 0 {
		go application.NewRefreshScheduler(a.svc, runner, cfg.RefreshInterval).Start(ctx)
	}

	handler := httphandler.NewServeMux(httphandler.NewHandler(a.svc, runner, bus, slog.Default()), slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("cursorswitch serving",
		"listen_addr", cfg.ListenAddr,
		"accounts_dir", a.accounts.Dir(),
		"workers", cfg.Workers,
		"refresh_interval", cfg.RefreshInterval,
	)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	// Let submitted operations finish before the stores are closed.
	runner.Wait()

	slog.Info("shutdown complete")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
