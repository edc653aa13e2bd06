// Package main is the entry point for the railcar trips API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/railcar-trips/internal/config"
	"github.com/pkordes/railcar-trips/internal/handler"
	"github.com/pkordes/railcar-trips/internal/middleware"
	"github.com/pkordes/railcar-trips/internal/observability"
	"github.com/pkordes/railcar-trips/internal/reconstruct"
	"github.com/pkordes/railcar-trips/internal/repo"
	"github.com/pkordes/railcar-trips/internal/seed"
	"github.com/pkordes/railcar-trips/internal/service"
	"github.com/pkordes/railcar-trips/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Default slog handler writes to stderr until the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Database ---------------------------------------------------------
	// pgxpool.New does not connect; the ping below does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// goose drives database/sql; borrow a handle backed by the same pool.
	sqlDB := stdlib.OpenDBFromPool(pool)
	applied, err := migrations.Up(ctx, sqlDB)
	sqlDB.Close()
	if err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", applied)

	// --- Reference data ---------------------------------------------------
	clock := clockwork.NewRealClock()
	refs := repo.NewReferenceRepo(pool)

	seeder, err := seed.New(refs, os.DirFS(cfg.SeedDir), clock, logger)
	if err != nil {
		slog.Error("failed to load seed configuration", "error", err)
		os.Exit(1)
	}
	if err := seeder.Run(ctx); err != nil {
		slog.Error("failed to seed reference data", "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	trips := repo.NewTripRepo(pool)

	uploads := service.NewUploadService(refs, trips, service.UploadOptions{
		Classifier: reconstruct.NewClassifier(cfg.ReleaseCodes, cfg.PlacementCodes),
		Workers:    cfg.Workers,
	}, clock, metrics, logger)

	srv := handler.NewServer(
		uploads,
		service.NewTripService(trips),
		service.NewExportService(trips),
		logger,
	)

	// --- Router -----------------------------------------------------------
	// RequestID must precede SlogLogger so each log line carries the ID.
	// Recoverer turns panics into 500s.
	// MaxBodySize rejects oversized uploads before multipart parsing starts.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxUploadBytes))

	srv.Routes(r)
	r.Handle("/metrics", promhttp.Handler())

	// --- HTTP Server ------------------------------------------------------
	// Uploads are parsed and committed inside the request, so the write
	// timeout is generous.
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr, "workers", cfg.Workers)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
