package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tonisark/ActressManager/database"
	"github.com/Tonisark/ActressManager/importer"
	"github.com/Tonisark/ActressManager/models"
	"github.com/Tonisark/ActressManager/realtime"
	"github.com/Tonisark/ActressManager/repository"
)

func newImportService(env *testEnv) *ImportService {
	return NewImportService(env.profiles, repository.NewGormImportRunRepository(env.gorm))
}

func decodeCSV(t *testing.T, in string) *importer.Batch {
	t.Helper()
	batch, err := importer.DecodeCSV(strings.NewReader(in))
	require.NoError(t, err)
	return batch
}

func TestParseImportMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ImportMode
		wantErr bool
	}{
		{"", ImportModeSkip, false},
		{"skip", ImportModeSkip, false},
		{" UPDATE ", ImportModeUpdate, false},
		{"merge", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseImportMode(tt.in)
			if tt.wantErr {
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImportCSV_InsertThenSkip(t *testing.T) {
	env := newTestEnv(t)
	svc := newImportService(env)
	ctx := context.Background()
	const file = "Model Name,Age,Occupation\n" +
		"Jane Doe,29,Model\n" +
		"John Roe,,Actor\n" +
		",,\n"

	report, err := svc.ImportCSV(ctx, decodeCSV(t, file), ImportModeSkip, "models.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Upserted)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Errors)
	assert.NotZero(t, report.RunID)

	jane, err := database.FindProfileByName(ctx, env.db, "jane doe")
	require.NoError(t, err)
	require.NotNil(t, jane.Age)
	assert.Equal(t, 29, *jane.Age)
	assert.Equal(t, "Model", jane.Profession)
	assert.Equal(t, "Jane_Doe", jane.FolderName)
	assert.False(t, jane.HasPictures)

	page, err := env.profiles.List(ctx, database.ProfileFilter{Query: "jan"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	report, err = svc.ImportCSV(ctx, decodeCSV(t, file), ImportModeSkip, "models.csv")
	require.NoError(t, err)
	assert.Zero(t, report.Upserted)
	assert.Equal(t, 3, report.Skipped)

	runs, err := svc.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "csv", runs[0].Source)
	assert.Equal(t, "models.csv", runs[0].Filename)
	assert.Contains(t, env.events.types(), realtime.EventImportCompleted)
}

func TestImportCSV_UpdateMode(t *testing.T) {
	env := newTestEnv(t)
	svc := newImportService(env)
	ctx := context.Background()
	original := env.create(t, models.Profile{Name: "Jane Doe", Profession: "Model", Religion: "Other", Tags: "#keep"})

	t.Run("case variant below threshold is skipped", func(t *testing.T) {
		report, err := svc.ImportCSV(ctx, decodeCSV(t, "name,profession\njane doe,Singer\n"), ImportModeUpdate, "")
		require.NoError(t, err)
		assert.Zero(t, report.Upserted)
		assert.Equal(t, 1, report.Skipped)

		stored, err := env.profiles.Get(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, "Model", stored.Profession)
	})

	t.Run("score 79 is skipped", func(t *testing.T) {
		maria := env.create(t, models.Profile{Name: "Maria Gonzales", Profession: "Model"})
		report, err := svc.ImportCSV(ctx, decodeCSV(t, "name,profession,age\nMARIa Gonzales,Singer,40\n"), ImportModeUpdate, "")
		require.NoError(t, err)
		assert.Zero(t, report.Upserted)
		assert.Equal(t, 1, report.Skipped)

		stored, err := env.profiles.Get(ctx, maria.ID)
		require.NoError(t, err)
		assert.Equal(t, "Model", stored.Profession)
		assert.Nil(t, stored.Age)
	})

	t.Run("score 80 updates", func(t *testing.T) {
		lena := env.create(t, models.Profile{Name: "Lena Smith", Profession: "Model"})
		report, err := svc.ImportCSV(ctx, decodeCSV(t, "name,profession\nLENa Smith,Singer\n"), ImportModeUpdate, "")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Upserted)

		stored, err := env.profiles.Get(ctx, lena.ID)
		require.NoError(t, err)
		assert.Equal(t, "Singer", stored.Profession)
		assert.Equal(t, "Lena Smith", stored.Name)
	})

	t.Run("close variant updates only mapped fields", func(t *testing.T) {
		report, err := svc.ImportCSV(ctx, decodeCSV(t, "name,profession,age,folder\nJane doe,Singer,31,\n"), ImportModeUpdate, "")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Upserted)

		stored, err := env.profiles.Get(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", stored.Name, "name is never overwritten")
		assert.Equal(t, "Singer", stored.Profession)
		require.NotNil(t, stored.Age)
		assert.Equal(t, 31, *stored.Age)
		assert.Equal(t, "Other", stored.Religion)
		assert.Equal(t, "#keep", stored.Tags)
		assert.Equal(t, "Jane_Doe", stored.FolderName, "empty folder keeps the stored one")

		entry, err := database.GetSearchEntry(ctx, env.db, original.ID)
		require.NoError(t, err)
		assert.Equal(t, "Singer", entry.Profession)
	})

	t.Run("skip mode never updates", func(t *testing.T) {
		report, err := svc.ImportCSV(ctx, decodeCSV(t, "name,profession\nJane Doe,Dancer\n"), ImportModeSkip, "")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Skipped)
	})

	_, err := svc.ImportCSV(ctx, decodeCSV(t, "name\nX\n"), ImportMode("merge"), "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestImportCSV_UnsafeFolderIsSanitized(t *testing.T) {
	env := newTestEnv(t)
	svc := newImportService(env)
	ctx := context.Background()

	tests := []struct {
		name   string
		folder string
		want   string
	}{
		{"Eve", "../../etc", "etc"},
		{"Ada", "a:b", "ab"},
		{"Cora", "what?*", "what"},
		{"Dana", "CON", "_CON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ImportCSV(ctx, decodeCSV(t, "name,folder\n"+tt.name+","+tt.folder+"\n"), ImportModeSkip, "")
			require.NoError(t, err)
			p, err := database.FindProfileByName(ctx, env.db, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.FolderName)
		})
	}
}

func TestImportJSON(t *testing.T) {
	env := newTestEnv(t)
	svc := newImportService(env)
	ctx := context.Background()
	env.create(t, models.Profile{Name: "Existing", Profession: "Model"})

	in := `[
		{"name": "Existing", "profession": "Singer"},
		{"name": "Fresh", "age": 24, "has_pictures": 1, "tags": "#new"},
		{"name": "Broken", "age": "old"},
		{"aka": "no name"}
	]`
	batch, err := importer.DecodeJSON(strings.NewReader(in))
	require.NoError(t, err)

	report, err := svc.ImportJSON(ctx, batch, "dump.json")
	require.NoError(t, err)
	assert.Equal(t, ImportModeSkip, report.Mode)
	assert.Equal(t, 1, report.Upserted)
	assert.Equal(t, 3, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Line)
	assert.Equal(t, "Broken", report.Errors[0].Name)

	existing, err := database.FindProfileByName(ctx, env.db, "Existing")
	require.NoError(t, err)
	assert.Equal(t, "Model", existing.Profession, "json import never updates")

	fresh, err := database.FindProfileByName(ctx, env.db, "Fresh")
	require.NoError(t, err)
	assert.True(t, fresh.HasPictures)
	require.NotNil(t, fresh.Age)
	assert.Equal(t, 24, *fresh.Age)

	drift, err := env.profiles.CheckIndex(ctx)
	require.NoError(t, err)
	assert.True(t, drift.Clean())
}

func TestImport_StopsOnCancelledContext(t *testing.T) {
	env := newTestEnv(t)
	svc := newImportService(env)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.ImportCSV(ctx, decodeCSV(t, "name\nA\nB\n"), ImportModeSkip, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Upserted)
}
