// Package main is the entrypoint for the Quarry server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quarrylabs/quarry-cms/internal/auth"
	"github.com/quarrylabs/quarry-cms/internal/collection"
	"github.com/quarrylabs/quarry-cms/internal/config"
	"github.com/quarrylabs/quarry-cms/internal/database"
	"github.com/quarrylabs/quarry-cms/internal/history"
	"github.com/quarrylabs/quarry-cms/internal/item"
	"github.com/quarrylabs/quarry-cms/internal/media"
	"github.com/quarrylabs/quarry-cms/internal/seed"
	"github.com/quarrylabs/quarry-cms/internal/server"
	"github.com/quarrylabs/quarry-cms/internal/stage"
)

func main() {
	cfg := config.Load()

	// --- Set up structured logging ---
	logLevel := slog.LevelInfo
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting Quarry",
		"port", cfg.Port,
		"media_dir", cfg.MediaDir,
		"default_stage", cfg.DefaultStage,
		"dev_mode", cfg.DevMode,
	)

	// --- Connect to database ---
	if cfg.DatabaseURL == "" {
		slog.Error("QUARRY_DATABASE_URL is required")
		os.Exit(1)
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	db, err := database.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// --- Run system table migrations ---
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied")

	// --- Wire repositories and services ---
	stageRepo := stage.NewRepository(db)
	collectionRepo := collection.NewRepository(db)
	itemRepo := item.NewRepository(db)
	historyRepo := history.NewRepository(db)
	mediaRepo := media.NewRepository(db)

	collectionService := collection.NewService(collectionRepo, itemRepo)

	mediaStorage, err := media.NewLocalStorage(cfg.MediaDir)
	if err != nil {
		slog.Error("failed to set up media storage", "error", err)
		os.Exit(1)
	}
	mediaService := media.NewService(mediaRepo, mediaStorage, cfg.PublicBaseURL)
	mediaResolver := media.NewResolver(mediaRepo, cfg.PublicBaseURL)

	recorder := history.NewRecorder(historyRepo)
	itemService := item.NewService(collectionService, itemRepo, recorder, mediaResolver)

	// --- Set up authentication ---
	if cfg.JWTSecret == "" {
		slog.Error("QUARRY_JWT_SECRET is required")
		os.Exit(1)
	}

	authRepo := auth.NewRepository(db)
	authService := auth.NewService(authRepo, stageRepo, cfg.JWTSecret, cfg.DefaultStage)

	// Create the initial admin if configured.
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		adminCtx, adminCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer adminCancel()

		if err := authService.EnsureAdmin(adminCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			slog.Error("failed to ensure initial admin", "error", err)
			os.Exit(1)
		}
	}

	// --- Apply the seed file when configured ---
	if cfg.SeedFile != "" {
		seedFile, err := seed.Load(cfg.SeedFile)
		if err != nil {
			slog.Error("failed to load seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}

		seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer seedCancel()

		seeder := seed.NewSeeder(stageRepo, collectionService)
		if err := seeder.Apply(seedCtx, seedFile); err != nil {
			slog.Error("failed to apply seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		slog.Info("seed file applied", "path", cfg.SeedFile)
	}

	// --- Build router and start server ---
	deps := server.Dependencies{
		DB:             db,
		DevMode:        cfg.DevMode,
		AuthHandler:    auth.NewHandler(authService),
		AuthMiddleware: auth.Middleware(cfg.JWTSecret),
		Collections:    collection.NewHandler(collectionService),
		Items:          item.NewHandler(itemService),
		Media:          media.NewHandler(mediaService),
		StageList:      stage.NewHandler(stageRepo).List,
		ItemHistory:    history.NewHandler(historyRepo).List,
	}

	router := server.NewRouter(deps)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := server.New(addr, router)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		errCh <- srv.Start()
	}()

	// --- Graceful shutdown on SIGINT/SIGTERM ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down server (30s timeout)...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("Quarry stopped")
}
