package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/media"
	"github.com/Tonisark/ActressManager/repository"
	"github.com/Tonisark/ActressManager/services"
	"github.com/Tonisark/ActressManager/workers"
)

type apiEnv struct {
	cfg      config.Config
	router   http.Handler
	profiles *services.ProfileService
	admins   repository.AdminRepository
	backups  *workers.BackupWorker
}

func testConfig(t *testing.T) config.Config {
	root := t.TempDir()
	mediaRoot := filepath.Join(root, "media")
	return config.Config{
		DatabasePath:           ":memory:",
		MediaRoot:              mediaRoot,
		RecycleBin:             filepath.Join(mediaRoot, config.DefaultRecycleBinSubDir),
		BackupDir:              filepath.Join(root, "backups"),
		PageSize:               config.DefaultPageSize,
		SimilarityExact:        100,
		SimilarityWarn:         85,
		SimilarityMerge:        80,
		SimilarityImportUpdate: 80,
		ThumbnailMaxSize:       100,
		BackupQueueSize:        4,
		AllowedOrigins:         []string{"http://localhost:5173"},
		JWTExpirationHours:     1,
	}
}

func newAPIEnv(t *testing.T, mutate ...func(*config.Config)) *apiEnv {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(&cfg)
	}

	db, err := database.InitDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gdb, err := database.InitGormDB(db)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, gdb))

	store, err := media.NewFolderStore(cfg.MediaRoot, cfg.RecycleBin, cfg.ThumbnailMaxSize)
	require.NoError(t, err)

	profiles := services.NewProfileService(db, store, nil, cfg)
	backupRepo := repository.NewGormBackupRepository(gdb)
	admins := repository.NewGormAdminRepository(gdb)

	worker := workers.NewBackupWorker(cfg, profiles, backupRepo, nil)

	router := NewRouter(RouterDeps{
		Config:   cfg,
		Profiles: profiles,
		Imports:  services.NewImportService(profiles, repository.NewGormImportRunRepository(gdb)),
		Backups:  worker,
		Records:  backupRepo,
		Admins:   admins,
	})
	return &apiEnv{cfg: cfg, router: router, profiles: profiles, admins: admins, backups: worker}
}

func (e *apiEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) doJSON(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return e.do(req)
}

func multipartRequest(t *testing.T, target, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}
