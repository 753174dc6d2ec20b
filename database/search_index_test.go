package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tonisark/ActressManager/models"
)

func TestReindexProfile_CopiesSearchableFields(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	id := seedProfile(t, db, models.Profile{
		Name:        "Jane Doe",
		Aka:         "JD",
		Description: "Studio portraits",
		Tags:        "#studio",
		Profession:  "Photographer",
		Specialties: "lighting",
		Country:     "Spain",
	})

	entry, err := GetSearchEntry(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, SearchEntry{
		ID: id, Name: "Jane Doe", Aka: "JD", Description: "Studio portraits",
		Tags: "#studio", Profession: "Photographer", Specialties: "lighting",
	}, entry)

	p, err := GetProfileByID(ctx, db, id)
	require.NoError(t, err)
	p.Aka = "Janey"
	require.NoError(t, UpdateProfile(ctx, db, &p))
	require.NoError(t, ReindexProfile(ctx, db, id))

	entry, err = GetSearchEntry(ctx, db, id)
	require.NoError(t, err)
	assert.Equal(t, "Janey", entry.Aka)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM profiles_fts WHERE rowid = ?", id).Scan(&n))
	assert.Equal(t, 1, n, "reindex must overwrite, not duplicate")
}

func TestReindexProfile_MissingProfileRemovesEntry(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	id := seedProfile(t, db, models.Profile{Name: "Gone"})

	require.NoError(t, DeleteProfile(ctx, db, id))
	require.NoError(t, ReindexProfile(ctx, db, id))

	_, err := GetSearchEntry(ctx, db, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRemoveFromIndex_IsIdempotent(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	id := seedProfile(t, db, models.Profile{Name: "A"})

	require.NoError(t, RemoveFromIndex(ctx, db, id))
	require.NoError(t, RemoveFromIndex(ctx, db, id))

	_, err := GetSearchEntry(ctx, db, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindIndexDriftAndRebuild(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	a := seedProfile(t, db, models.Profile{Name: "A"})
	b := seedProfile(t, db, models.Profile{Name: "B"})

	// simulate a write path that skipped the index
	require.NoError(t, RemoveFromIndex(ctx, db, a))
	require.NoError(t, DeleteProfile(ctx, db, b))

	drift, err := FindIndexDrift(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []int64{a}, drift.Missing)
	assert.Equal(t, []int64{b}, drift.Orphaned)
	assert.False(t, drift.Clean())

	n, err := RebuildSearchIndex(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	drift, err = FindIndexDrift(ctx, db)
	require.NoError(t, err)
	assert.True(t, drift.Clean())
}

func TestEnsureSearchIndex_RecreatesExternalContentTable(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	seedProfile(t, db, models.Profile{Name: "Legacy Row", Tags: "#old"})

	_, err := db.Exec("DROP TABLE profiles_fts")
	require.NoError(t, err)
	_, err = db.Exec("CREATE VIRTUAL TABLE profiles_fts USING fts5(name, aka, description, tags, content='profiles', content_rowid='id')")
	require.NoError(t, err)

	require.NoError(t, EnsureSearchIndex(ctx, db))
	_, err = RebuildSearchIndex(ctx, db)
	require.NoError(t, err)

	var ddl string
	require.NoError(t, db.QueryRow("SELECT sql FROM sqlite_master WHERE name = 'profiles_fts'").Scan(&ddl))
	assert.NotContains(t, ddl, "content=")
	assert.Contains(t, ddl, "specialties")

	page, err := ListProfiles(ctx, db, ProfileFilter{Query: "legacy"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
