// Package app wires the catalog's storage, services and workers together
// for the server and the command line tool.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/media"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/realtime"
	"github.com/Tonisark/ActressManager/repository"
	"github.com/Tonisark/ActressManager/services"
	"github.com/Tonisark/ActressManager/workers"
)

type App struct {
	Config   config.Config
	DB       *sql.DB
	Gorm     *gorm.DB
	Store    *media.FolderStore
	Profiles *services.ProfileService
	Imports  *services.ImportService
	Backups  *workers.BackupWorker
	Records  repository.BackupRepository
	Admins   repository.AdminRepository
}

// Open prepares the storage directories, opens and migrates the database
// and builds the services. events may be nil.
func Open(ctx context.Context, cfg config.Config, events realtime.Publisher) (*App, error) {
	storagePaths := []string{cfg.MediaRoot, cfg.BackupDir, filepath.Dir(cfg.DatabasePath)}
	for _, p := range storagePaths {
		slog.Debug("ensuring storage directory exists", "path", p)
		if err := os.MkdirAll(p, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", p, err)
		}
	}

	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := database.InitGormDB(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	if err := database.Migrate(ctx, db, gdb); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := media.NewFolderStore(cfg.MediaRoot, cfg.RecycleBin, cfg.ThumbnailMaxSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize media store: %w", err)
	}

	profiles := services.NewProfileService(db, store, events, cfg)
	records := repository.NewGormBackupRepository(gdb)
	return &App{
		Config:   cfg,
		DB:       db,
		Gorm:     gdb,
		Store:    store,
		Profiles: profiles,
		Imports:  services.NewImportService(profiles, repository.NewGormImportRunRepository(gdb)),
		Backups:  workers.NewBackupWorker(cfg, profiles, records, events),
		Records:  records,
		Admins:   repository.NewGormAdminRepository(gdb),
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// EnsureAdmin creates the admin username with password unless it exists.
// It reports whether an account was created.
func EnsureAdmin(admins repository.AdminRepository, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := admins.GetByUsername(username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up admin %q: %w", username, err)
	}

	admin := &models.Admin{Username: username}
	if err := admin.SetPassword(password); err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := admins.Create(admin); err != nil {
		return false, fmt.Errorf("failed to create admin %q: %w", username, err)
	}
	return true, nil
}
