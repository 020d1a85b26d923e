package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/rubiojr/gasprice/internal/web"
	"github.com/rubiojr/gasprice/pkg/api"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve prices over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
			},
			&cli.DurationFlag{
				Name:  "refresh-interval",
				Usage: "How often prices are refreshed",
				Value: 15 * time.Minute,
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	interval := c.Duration("refresh-interval")
	if interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := httplog.NewLogger("gasprice", httplog.Options{
		JSON:            false,
		LogLevel:        level,
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	e, err := newEnv(c, logger.Logger)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.requireSession(c); err != nil {
		return err
	}

	ctx := c.Context
	if deleted, err := e.app.Prune(ctx, e.cfg.RetentionDays); err != nil {
		logger.Error("Error pruning snapshots", "error", err)
	} else if deleted > 0 {
		logger.Info("Pruned old snapshots", "deleted", deleted)
	}

	e.app.WatchRefresh(ctx, api.Filters{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			e.app.Refresh()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	addr := e.cfg.ListenAddr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewHandler(e.app, logger, web.Options{RadiusKm: e.cfg.RadiusKm}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", "error", err)
		}
	}()

	logger.Info("Starting server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
