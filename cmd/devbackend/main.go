package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sokoni-app/sokoni_mobile/internal/config"
	"github.com/sokoni-app/sokoni_mobile/internal/devbackend"
	"github.com/sokoni-app/sokoni_mobile/internal/infra"
	"github.com/sokoni-app/sokoni_mobile/internal/logging"
)

func main() {
	cfg, err := config.LoadBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	var repo devbackend.Repository
	if cfg.DatabaseURL != "" {
		db, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := devbackend.NewPostgresRepository(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		repo = pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repository")
		repo = devbackend.NewMemoryRepository()
	}

	app := devbackend.NewApp(repo, cfg.JWTSecret, cfg.AccessTokenTTL, logger)

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- app.Listen(cfg.Address())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
