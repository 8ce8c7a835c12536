// Package main is the entry point for the delivery API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
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
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/Basim108/galactic-delivery-system.backend/internal/config"
	"github.com/Basim108/galactic-delivery-system.backend/internal/handler"
	"github.com/Basim108/galactic-delivery-system.backend/internal/messaging"
	"github.com/Basim108/galactic-delivery-system.backend/internal/middleware"
	"github.com/Basim108/galactic-delivery-system.backend/internal/repo"
	"github.com/Basim108/galactic-delivery-system.backend/internal/service"
	"github.com/Basim108/galactic-delivery-system.backend/migrations"
)

// maxRequestBodyBytes caps incoming JSON payloads. Route creation with a long
// checkpoint list is the largest request the API accepts; 1 MiB is generous.
const maxRequestBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Storage ----------------------------------------------------------
	var (
		trips    repo.TripStore
		drivers  repo.DriverRepo
		vehicles repo.VehicleRepo
		routes   repo.RouteRepo
		ledger   repo.BookingLedger
	)

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}

		// pgxpool manages a pool of Postgres connections.
		// New() does not open connections immediately — the first query does.
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		// Verify the DB is reachable before accepting traffic.
		if err := pool.Ping(context.Background()); err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		slog.Info("database connection established")

		trips = repo.NewTripStore(pool)
		drivers = repo.NewDriverRepo(pool)
		vehicles = repo.NewVehicleRepo(pool)
		routes = repo.NewRouteRepo(pool)
		ledger = repo.NewBookingLedger(pool)

	case config.BackendMemory:
		slog.Info("using in-memory storage; data is lost on restart")
		trips = repo.NewMemoryTripStore()
		drivers = repo.NewMemoryDriverRepo()
		vehicles = repo.NewMemoryVehicleRepo()
		routes = repo.NewMemoryRouteRepo()
		ledger = repo.NewMemoryBookingLedger()
	}

	// --- Event publisher --------------------------------------------------
	var publisher service.EventPublisher
	if cfg.AMQPURL != "" {
		amqpPub, err := messaging.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			slog.Error("failed to connect to message broker", "error", err)
			os.Exit(1)
		}
		defer amqpPub.Close()
		slog.Info("publishing trip events to message broker", "exchange", messaging.Exchange)
		publisher = amqpPub
	} else {
		publisher = messaging.NewLogPublisher(logger)
	}

	// --- Services ---------------------------------------------------------
	tripService := service.NewTripService(
		trips, drivers, vehicles, routes, ledger,
		service.SystemClock{}, publisher, logger,
	)
	resourceService := service.NewResourceService(drivers, vehicles, routes)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBodyBytes))

	server := handler.NewServer(tripService, resourceService)
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// runMigrations applies any pending schema migrations before the pool opens.
// It uses a short-lived database/sql connection because goose drives *sql.DB.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}

	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("migration applied", "source", res.Source.Path)
	}
	return nil
}
