package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nrkno/sofie-core-sub006/internal/config"
	"github.com/nrkno/sofie-core-sub006/internal/db"
	"github.com/nrkno/sofie-core-sub006/internal/logger"
	"github.com/nrkno/sofie-core-sub006/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet, fall back to stderr
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		logger.Log.Fatal().
			Err(err).
			Str("path", cfg.Database.Path).
			Msg("Failed to open database")
	}
	defer func() {
		_ = database.Close()
	}()

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		logger.Log.Fatal().
			Err(err).
			Msg("Failed to get underlying database handle")
	}
	if err := db.RunMigrations(sqlDB, "file://./migrations"); err != nil {
		logger.Log.Fatal().
			Err(err).
			Msg("Failed to run database migrations")
	}

	srv := server.New(cfg, database)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().
				Err(err).
				Msg("HTTP server failed")
		}
	case sig := <-quit:
		logger.Log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Log.Error().
				Err(err).
				Msg("Graceful shutdown failed")
		}
	}
}
