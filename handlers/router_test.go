package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/workers"
)

func TestAuthProtectsAPI(t *testing.T) {
	env := newAPIEnv(t, func(c *config.Config) { c.JWTSecret = "test-secret" })

	admin := &models.Admin{Username: "root"}
	require.NoError(t, admin.SetPassword("hunter2"))
	require.NoError(t, env.admins.Create(admin))

	rec := env.doJSON(t, http.MethodGet, "/api/profiles", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", LoginPayload{Username: "root", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.doJSON(t, http.MethodPost, "/api/auth/login", LoginPayload{Username: "root", Password: "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login LoginResponse
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.Token)
	assert.NotContains(t, rec.Body.String(), "hunter2")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.Admin
	decodeBody(t, rec, &me)
	assert.Equal(t, "root", me.Username)

	req = httptest.NewRequest(http.MethodGet, "/api/profiles?token="+login.Token, nil)
	rec = env.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/api/profiles", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMediaAssets(t *testing.T) {
	env := newAPIEnv(t)
	require.NoError(t, os.MkdirAll(filepath.Join(env.cfg.MediaRoot, "Jane_Doe"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.MediaRoot, "Jane_Doe", "a.jpg"), []byte("jpeg"), 0644))
	require.NoError(t, os.MkdirAll(env.cfg.RecycleBin, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.RecycleBin, "gone.jpg"), []byte("jpeg"), 0644))

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"file", "/media/Jane_Doe/a.jpg", http.StatusOK},
		{"missing", "/media/Jane_Doe/b.jpg", http.StatusNotFound},
		{"directory", "/media/Jane_Doe", http.StatusNotFound},
		{"traversal", "/media/../secret.txt", http.StatusBadRequest},
		{"recycle bin", "/media/" + config.DefaultRecycleBinSubDir + "/gone.jpg", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=")
				assert.Equal(t, "jpeg", rec.Body.String())
			}
		})
	}
}

func TestBackupEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/backups?media=false", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	rec = env.doJSON(t, http.MethodPost, "/api/backups?media=false", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = env.doJSON(t, http.MethodPost, "/api/backups?media=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	record, err := env.backups.Run(context.Background(), workers.BackupJob{})
	require.NoError(t, err)

	rec = env.doJSON(t, http.MethodGet, "/api/backups/"+record.Filename, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), record.Filename)

	rec = env.doJSON(t, http.MethodGet, "/api/backups/backup_missing.zip", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newAPIEnv(t)
	env.doJSON(t, http.MethodGet, "/api/options", nil)

	rec := env.doJSON(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/options")
}
