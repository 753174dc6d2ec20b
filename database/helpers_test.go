package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Tonisark/ActressManager/models"
)

// setupDB opens a private in-memory catalog with the full schema.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := InitGormDB(db)
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db, gdb))
	return db
}

// seedProfile inserts p and its shadow entry, the way the service layer does.
func seedProfile(t *testing.T, db *sql.DB, p models.Profile) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
		var err error
		if id, err = InsertProfile(ctx, tx, &p); err != nil {
			return err
		}
		return ReindexProfile(ctx, tx, id)
	})
	require.NoError(t, err)
	return id
}

func intPtr(v int) *int { return &v }
