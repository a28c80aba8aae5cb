package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/aretw0/koremd/internal/server"
	"github.com/aretw0/koremd/pkg/adapters/lifecycle"
	"github.com/aretw0/koremd/pkg/core"
)

var (
	serveAddr    string
	serveNoWatch bool
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the notes over a JSON HTTP API",
	Long: heredoc.Doc(`
		Serve the registry, the Markdown preview and the settings over HTTP.
		Changes made to the backing storage by another process are picked up
		and reloaded unless --no-watch is given.
	`),
	Example: heredoc.Doc(`
		koremd serve
		koremd serve --addr :9000 --platform web
		curl -s localhost:8787/api/files
	`),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := openApp(ctx)
		defer app.Close()
		logger := slog.Default()

		if !serveNoWatch {
			watchRegistry(ctx, app.Registry, logger)
		}

		addr := cfg.GetString("http_addr")
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           server.New(app).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", addr, "platform", app.Platform)
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				fatal("Error serving", err)
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown failed", "error", err)
			}
		}

		if err := app.Registry.Flush(context.Background()); err != nil {
			logger.Error("failed to flush files", "error", err)
		}
	},
}

type registryWatcher interface {
	Watch(ctx context.Context) (<-chan core.Event, error)
}

// watchRegistry reloads the registry on external changes and logs each one.
func watchRegistry(ctx context.Context, reg registryWatcher, logger *slog.Logger) {
	events, err := reg.Watch(ctx)
	if err != nil {
		logger.Warn("watch disabled", "error", err)
		return
	}
	src := lifecycle.NewSource(events, logger)
	if err := src.Start(ctx); err != nil {
		logger.Warn("watch disabled", "error", err)
		return
	}
	go func() {
		for e := range src.Events() {
			logger.Info("files changed externally, reloaded", "event", e.String())
		}
	}()
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from http_addr)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload on external changes")
	rootCmd.AddCommand(serveCmd)
}
