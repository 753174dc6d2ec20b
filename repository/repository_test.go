package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/Tonisark/ActressManager/models"
)

func setupGormDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: "file::memory:"}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.ImportRun{}, &models.Backup{}, &models.Admin{}))
	return db
}

func TestImportRunRepository_ListRecent(t *testing.T) {
	repo := NewGormImportRunRepository(setupGormDB(t))
	for i, started := range []int64{100, 300, 200} {
		require.NoError(t, repo.Create(&models.ImportRun{
			Source: "csv", Mode: "skip", Upserted: i, StartedAt: started, FinishedAt: started + 1,
		}))
	}

	runs, err := repo.ListRecent(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(300), runs[0].StartedAt)
	assert.Equal(t, int64(200), runs[1].StartedAt)

	got, err := repo.GetByID(runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upserted)

	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestBackupRepository(t *testing.T) {
	repo := NewGormBackupRepository(setupGormDB(t))
	require.NoError(t, repo.Create(&models.Backup{Filename: "backup_a.zip", SizeBytes: 10, CreatedAt: 1}))
	require.NoError(t, repo.Create(&models.Backup{Filename: "backup_b.zip", SizeBytes: 20, CreatedAt: 2, Automated: true}))

	assert.Error(t, repo.Create(&models.Backup{Filename: "backup_a.zip", CreatedAt: 3}), "filename is unique")

	all, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "backup_b.zip", all[0].Filename)

	b, err := repo.GetByFilename("backup_a.zip")
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.SizeBytes)

	require.NoError(t, repo.Delete(b.ID))
	_, err = repo.GetByFilename("backup_a.zip")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAdminRepository(t *testing.T) {
	repo := NewGormAdminRepository(setupGormDB(t))
	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	admin := &models.Admin{Username: "root"}
	require.NoError(t, admin.SetPassword("s3cret"))
	require.NoError(t, repo.Create(admin))

	got, err := repo.GetByUsername("root")
	require.NoError(t, err)
	assert.True(t, got.CheckPassword("s3cret"))
	assert.False(t, got.CheckPassword("wrong"))

	require.NoError(t, got.SetPassword("changed"))
	require.NoError(t, repo.Update(got))
	again, err := repo.GetByID(got.ID)
	require.NoError(t, err)
	assert.True(t, again.CheckPassword("changed"))

	n, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
