package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tonisark/ActressManager/app"
	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/handlers"
	"github.com/Tonisark/ActressManager/logging"
	"github.com/Tonisark/ActressManager/realtime"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	a, err := app.Open(ctx, cfg, hub)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if created, err := app.EnsureAdmin(a.Admins, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		slog.Error("failed to bootstrap admin", "error", err)
		os.Exit(1)
	} else if created {
		slog.Info("created admin account", "username", cfg.AdminUsername)
	}
	if cfg.AuthEnabled() {
		if n, err := a.Admins.Count(); err == nil && n == 0 {
			slog.Warn("auth is enabled but no admin exists; set ADMIN_USERNAME and ADMIN_PASSWORD or use catalogctl admin create")
		}
	} else {
		slog.Warn("JWT_SECRET is not set, the API is open to anyone who can reach it")
	}

	a.Backups.Start(time.Duration(cfg.BackupIntervalHours) * time.Hour)

	slog.Info("catalog ready",
		"database", cfg.DatabasePath,
		"media_root", cfg.MediaRoot,
		"recycle_bin", cfg.RecycleBin,
		"backups", cfg.BackupDir,
		"thumbnail_max_size", cfg.ThumbnailMaxSize,
	)

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:   cfg,
		Profiles: a.Profiles,
		Imports:  a.Imports,
		Backups:  a.Backups,
		Records:  a.Records,
		Admins:   a.Admins,
		Hub:      hub,
	})

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// exports and imports stream large bodies
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
	a.Backups.Stop()
}
