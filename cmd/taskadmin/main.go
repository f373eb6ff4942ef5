package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskadmin/internal/logger"
	"taskadmin/internal/server"
	db "taskadmin/repository/db"
	inmemory "taskadmin/repository/inmemory"

	"go.uber.org/zap"
)

// Store is everything the API needs from a storage backend.
type Store interface {
	server.AssignerRepository
	server.TaskRepository
	server.StatsRepository
}

func main() {
	cfg, err := server.ReadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting taskadmin service",
		zap.String("addr", cfg.ListenAddr()),
		zap.String("migrate_path", cfg.MigratePath),
	)

	store, closeStore := InitializeRepositories(cfg, log)
	defer closeStore()

	api := server.NewTaskAPI(store, store, store, cfg, log)
	if api == nil {
		log.Fatal("Failed to initialize API")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- api.Start()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		if err := handleShutdown(api, cfg); err != nil {
			log.Error("Graceful shutdown failed", zap.Error(err))
		} else {
			log.Info("Graceful shutdown complete")
		}
	case err := <-serverErr:
		if err != nil {
			log.Error("Server error", zap.Error(err))
		}
	}

	log.Info("Service stopped")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func handleShutdown(api shutdowner, cfg *server.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return api.Shutdown(ctx)
}

func RunMigrations(cfg *server.Config) error {
	return db.Migration(cfg.DBStr, cfg.MigratePath)
}

// InitializeRepositories migrates and opens PostgreSQL. When either step
// fails it falls back to the in-memory store so the service still starts.
func InitializeRepositories(cfg *server.Config, log *zap.Logger) (Store, func()) {
	if err := RunMigrations(cfg); err != nil {
		log.Warn("Migrations failed, using in-memory storage", zap.Error(err))
		return inmemory.NewStorage(), func() {}
	}
	log.Info("Migrations applied")

	dbStorage, err := db.NewStorage(cfg.DBStr, db.Options{
		MaxConns:     cfg.DBMaxConns,
		QueryTimeout: cfg.QueryTimeout,
	}, log)
	if err != nil {
		log.Warn("Database unavailable, using in-memory storage", zap.Error(err))
		return inmemory.NewStorage(), func() {}
	}
	return dbStorage, dbStorage.Close
}
