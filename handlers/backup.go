package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/repository"
	"github.com/Tonisark/ActressManager/workers"
)

type BackupHandler struct {
	Worker  *workers.BackupWorker
	Backups repository.BackupRepository
	Dir     string
}

// Create queues a backup. Media is included unless media=false.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	includeMedia := true
	if raw := r.URL.Query().Get("media"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "media must be true or false")
			return
		}
		includeMedia = v
	}
	if !h.Worker.QueueJob(workers.BackupJob{IncludeMedia: includeMedia}) {
		WriteAPIError(w, http.StatusConflict, "backup_pending", "a backup of this kind is already queued")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"queued": true, "includes_media": includeMedia})
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.Backups.ListAll()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if backups == nil {
		backups = []models.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "file")
	record, err := h.Worker.Lookup(filename)
	if err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "backup not found")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.Filename))
	http.ServeFile(w, r, filepath.Join(h.Dir, record.Filename))
}
