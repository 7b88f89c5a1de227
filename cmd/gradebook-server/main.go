package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Bisp1999/grading-app/internal/api"
	"github.com/Bisp1999/grading-app/internal/config"
	"github.com/Bisp1999/grading-app/internal/health"
	"github.com/Bisp1999/grading-app/internal/pagecontext"
	"github.com/Bisp1999/grading-app/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("starting gradebook-server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := storage.WaitForDB(ctx, cfg.Database.DSN, storage.WaitConfig{
		Retries:  cfg.Database.WaitRetries,
		Interval: cfg.Database.WaitInterval,
	}); err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(ctx, 30*time.Second)
	defer initCancel()

	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("database connected successfully")

	migrations, err := storage.Migrations(cfg.Database.MigrationsDir)
	if err != nil {
		slog.Error("failed to open migrations", "error", err)
		os.Exit(1)
	}
	if err := storage.RunMigrations(initCtx, repo.Pool(), migrations); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	checks := health.NewRegistry(2 * time.Second)
	checks.Register("postgres", repo)

	var lastUsed storage.LastUsedStore
	if cfg.Redis.Enabled {
		store, err := storage.NewRedisLastUsedStore(initCtx, storage.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		lastUsed = store
		checks.Register("redis", store)
	}

	setups := pagecontext.NewLoader()
	if err := setups.LoadFromDir(cfg.Context.Dir); err != nil {
		slog.Warn("failed to load teacher setups", "dir", cfg.Context.Dir, "error", err)
	}
	if cfg.Context.ReloadInterval > 0 {
		pagecontext.NewRefresher(setups, cfg.Context.Dir, cfg.Context.ReloadInterval).Start(ctx)
	}

	server := api.NewServer(cfg.Server, repo, lastUsed, setups, checks)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("gradebook-server stopped")
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
