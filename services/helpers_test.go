package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Tonisark/ActressManager/config"
	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/media"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/realtime"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Broadcast(e realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	db       *sql.DB
	gorm     *gorm.DB
	store    *media.FolderStore
	events   *recordingPublisher
	profiles *ProfileService
	cfg      config.Config
}

func testConfig(t *testing.T) config.Config {
	root := t.TempDir()
	return config.Config{
		DatabasePath:           ":memory:",
		MediaRoot:              filepath.Join(root, "media"),
		RecycleBin:             filepath.Join(root, "recycle"),
		PageSize:               config.DefaultPageSize,
		SimilarityExact:        100,
		SimilarityWarn:         85,
		SimilarityMerge:        80,
		SimilarityImportUpdate: 80,
		ThumbnailMaxSize:       100,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig(t)

	db, err := database.InitDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gdb, err := database.InitGormDB(db)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, gdb))

	store, err := media.NewFolderStore(cfg.MediaRoot, cfg.RecycleBin, cfg.ThumbnailMaxSize)
	require.NoError(t, err)

	events := &recordingPublisher{}
	return &testEnv{
		db:       db,
		gorm:     gdb,
		store:    store,
		events:   events,
		profiles: NewProfileService(db, store, events, cfg),
		cfg:      cfg,
	}
}

func (e *testEnv) create(t *testing.T, p models.Profile) models.Profile {
	t.Helper()
	res, err := e.profiles.Create(context.Background(), p)
	require.NoError(t, err)
	return res.Profile
}

func intPtr(v int) *int { return &v }
