package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/logging"
	"github.com/Tonisark/ActressManager/metrics"
	"github.com/Tonisark/ActressManager/realtime"
	"github.com/Tonisark/ActressManager/repository"
	"github.com/Tonisark/ActressManager/services"
	"github.com/Tonisark/ActressManager/workers"
)

// RouterDeps carries everything the HTTP layer needs.
type RouterDeps struct {
	Config   config.Config
	Profiles *services.ProfileService
	Imports  *services.ImportService
	Backups  *workers.BackupWorker
	Records  repository.BackupRepository
	Admins   repository.AdminRepository
	Hub      *realtime.Hub
}

func NewRouter(deps RouterDeps) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(corsHandler.Handler)

	profileHandler := &ProfileHandler{Profiles: deps.Profiles}
	importHandler := &ImportHandler{Imports: deps.Imports}
	backupHandler := &BackupHandler{Worker: deps.Backups, Backups: deps.Records, Dir: cfg.BackupDir}
	authHandler := NewAuthHandler(deps.Admins, cfg.JWTSecret, cfg.JWTExpirationHours)

	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/media/*", AssetServer(cfg.MediaRoot, "/media/", cfg.RecycleBin, cfg.BackupDir))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			if cfg.AuthEnabled() {
				r.Use(AuthMiddleware(deps.Admins, []byte(cfg.JWTSecret)))
				r.Get("/auth/me", authHandler.CurrentAdmin)
			}

			if deps.Hub != nil {
				r.Get("/ws", deps.Hub.ServeWS)
			}

			// long-running handlers stay outside the timeout
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))

				r.Route("/profiles", func(r chi.Router) {
					r.Get("/", profileHandler.List)
					r.Post("/", profileHandler.Create)
					r.Post("/bulk", profileHandler.Bulk)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", profileHandler.Get)
						r.Put("/", profileHandler.Update)
						r.Delete("/", profileHandler.Delete)
						r.Put("/thumbnail", profileHandler.UploadThumbnail)
						r.Get("/gallery", profileHandler.Gallery)
						r.Post("/sync", profileHandler.SocialSync)
					})
				})

				r.Get("/merge/candidates", profileHandler.MergeCandidates)
				r.Post("/merge/{id1}/{id2}", profileHandler.Merge)

				r.Get("/dashboard", profileHandler.Dashboard)
				r.Get("/tags/cloud", profileHandler.TagCloud)
				r.Get("/scan/missing", profileHandler.ScanMissing)
				r.Get("/options", profileHandler.Options)
				r.Get("/search/health", profileHandler.IndexHealth)
				r.Get("/import/runs", importHandler.ListRuns)
				r.Get("/backups", backupHandler.List)
				r.Post("/backups", backupHandler.Create)
			})

			r.Post("/search/reindex", profileHandler.Reindex)
			r.Post("/import/csv", importHandler.ImportCSV)
			r.Post("/import/json", importHandler.ImportJSON)
			r.Get("/export/csv", profileHandler.ExportCSV)
			r.Get("/export/json", profileHandler.ExportJSON)
			r.Get("/backups/{file}", backupHandler.Download)
		})
	})

	return r
}
