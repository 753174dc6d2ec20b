package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite,
// which ships FTS5.
const DriverName = "sqlite"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// InitDB opens the catalog database. SQLite allows one writer, so the pool
// is capped at a single connection and every request serializes on it.
// Code running inside WithTx must only use the DBTX it was handed.
func InitDB(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", dataSourceName, err)
	}

	// enable write-ahead logging for better read concurrency with the backup reader
	if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		slog.Warn("failed to set WAL mode", "component", "database", "error", err)
	}
	if _, err = db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		slog.Warn("failed to set busy timeout", "component", "database", "error", err)
	}

	slog.Info("database initialized", "component", "database", "path", dataSourceName)
	return db, nil
}
