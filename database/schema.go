package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tonisark/ActressManager/models"
)

// slogWriter adapts slog to gorm's logger.Writer.
type slogWriter struct {
	log *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// InitGormDB wraps an already opened connection pool with GORM so both
// layers share the single SQLite connection.
func InitGormDB(sqlDB *sql.DB) (*gorm.DB, error) {
	gormLogger := logger.New(
		slogWriter{log: slog.Default().With("component", "gorm")},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: DriverName, Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}
	return db, nil
}

// AutoMigrateModels creates missing tables and adds missing columns. It never
// drops columns, so databases created by older versions keep their data.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Profile{},
		&models.ImportRun{},
		&models.Backup{},
		&models.Admin{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	slog.Info("GORM AutoMigrate completed", "component", "database")
	return nil
}

// EnsureSearchIndex creates the FTS5 shadow table. A table left over from an
// older layout (missing columns, or bound to external content) is dropped and
// recreated; RebuildSearchIndex must run afterwards.
func EnsureSearchIndex(ctx context.Context, q DBTX) error {
	var ddl sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", models.SearchTableName,
	).Scan(&ddl)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to inspect search index table: %w", err)
	default:
		stale, err := searchIndexIsStale(ctx, q, ddl.String)
		if err != nil {
			return err
		}
		if !stale {
			return nil
		}
		slog.Warn("search index table has an outdated layout, recreating", "component", "database")
		if _, err := q.ExecContext(ctx, "DROP TABLE IF EXISTS "+models.SearchTableName); err != nil {
			return fmt.Errorf("failed to drop outdated search index: %w", err)
		}
	}

	stmt := fmt.Sprintf("CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5(%s)",
		models.SearchTableName, strings.Join(models.SearchColumns, ", "))
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}
	return nil
}

func searchIndexIsStale(ctx context.Context, q DBTX, ddl string) (bool, error) {
	if strings.Contains(strings.ToLower(ddl), "content=") {
		return true, nil
	}
	rows, err := q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", models.SearchTableName)
	if err != nil {
		return false, fmt.Errorf("failed to read search index columns: %w", err)
	}
	defer rows.Close()
	have := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("failed to scan search index column: %w", err)
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating search index columns: %w", err)
	}
	for _, col := range models.SearchColumns {
		if !have[col] {
			return true, nil
		}
	}
	return false, nil
}

// Migrate brings the schema up to date and rebuilds the search index from
// the record store. It runs once at startup.
func Migrate(ctx context.Context, sqlDB *sql.DB, gormDB *gorm.DB) error {
	if err := AutoMigrateModels(gormDB); err != nil {
		return err
	}
	return WithTx(ctx, sqlDB, nil, func(ctx context.Context, tx DBTX) error {
		if err := EnsureSearchIndex(ctx, tx); err != nil {
			return err
		}
		n, err := RebuildSearchIndex(ctx, tx)
		if err != nil {
			return err
		}
		slog.Info("search index rebuilt", "component", "database", "profiles", n)
		return nil
	})
}
