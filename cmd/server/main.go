package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/optionlab/pricer/internal/api"
	"github.com/optionlab/pricer/internal/cloudsql"
	"github.com/optionlab/pricer/internal/config"
	"github.com/optionlab/pricer/internal/database"
	"github.com/optionlab/pricer/internal/logging"
	"github.com/optionlab/pricer/internal/metrics"
	"github.com/optionlab/pricer/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting pricer",
		"lattice_steps", cfg.Engines.LatticeSteps,
		"mc_paths", cfg.Engines.MCPaths,
		"mc_workers", cfg.Engines.MCWorkers,
		"auth_enabled", cfg.Auth.JWTSecret != "",
	)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	opts := []api.Option{api.WithCollector(collector)}

	if cfg.Database.URL != "" {
		logger.Info("database configuration", "config", cloudsql.Describe())

		db, err := connectStore(cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		opts = append(opts,
			api.WithQuoteStore(database.NewQuoteRepository(db)),
			api.WithHealthCheck(func(ctx context.Context) error { return database.HealthCheck(ctx, db) }),
			api.WithPoolStats(func() map[string]any { return database.Stats(db) }),
		)
	} else {
		logger.Info("no database configured, quote storage disabled")
	}

	handler := api.NewHandler(cfg.Engines.Defaults(), logger, opts...)
	mux := http.NewServeMux()
	api.SetupRoutes(mux, handler, collector, cfg.Auth.JWTSecret)

	srv := server.New(cfg.Server, logger, collector.InstrumentHandler(mux))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("pricer started", "addr", srv.Addr())

	waitForSignal(logger)

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func connectStore(cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	ctx := context.Background()

	logger.Info("connecting to database")
	db, err := database.ConnectWithRetry(ctx, database.DefaultConfig(cfg.URL), database.DefaultRetryPolicy(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected")

	if cfg.Migrate {
		// Non-fatal so pricing stays available while the schema is fixed.
		if err := database.RunMigrations(ctx, db, logger); err != nil {
			logger.Warn("failed to run migrations, continuing anyway", "error", err)
		}
	}
	return db, nil
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
}
