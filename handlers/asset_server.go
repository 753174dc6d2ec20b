package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AssetServer serves files below baseDir for requests under routePrefix.
// example usage:
//
//	r.Get("/media/*", AssetServer(cfg.MediaRoot, "/media/", cfg.RecycleBin))
//
// Paths that resolve into one of the hidden directories are not served.
func AssetServer(baseDir, routePrefix string, hidden ...string) http.HandlerFunc {
	baseDir = filepath.Clean(baseDir)
	log := slog.Default().With("component", "assets")
	log.Info("serving assets", "prefix", routePrefix, "dir", baseDir)

	return func(w http.ResponseWriter, r *http.Request) {
		relativePath := strings.TrimPrefix(r.URL.Path, routePrefix)
		if relativePath == "" || strings.Contains(relativePath, "..") {
			badRequest(w, "invalid asset path")
			return
		}

		cleanedAssetPath := filepath.Clean(filepath.Join(baseDir, relativePath))
		if !strings.HasPrefix(cleanedAssetPath, baseDir+string(os.PathSeparator)) {
			log.Warn("attempted asset access outside designated directory", "request", r.URL.Path, "resolved", cleanedAssetPath)
			WriteAPIError(w, http.StatusForbidden, "forbidden", "forbidden")
			return
		}
		for _, dir := range hidden {
			dir = filepath.Clean(dir)
			if cleanedAssetPath == dir || strings.HasPrefix(cleanedAssetPath, dir+string(os.PathSeparator)) {
				http.NotFound(w, r)
				return
			}
		}

		info, err := os.Stat(cleanedAssetPath)
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		} else if err != nil {
			log.Error("error stating asset file", "path", cleanedAssetPath, "error", err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		if info.IsDir() {
			http.NotFound(w, r)
			return
		}

		cacheDuration := 24 * time.Hour
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(cacheDuration.Seconds())))
		w.Header().Set("Expires", time.Now().Add(cacheDuration).Format(http.TimeFormat))

		http.ServeFile(w, r, cleanedAssetPath)
	}
}
