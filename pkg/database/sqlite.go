package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Register sqlite driver
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// OpenSQLite opens (creating if needed) the SQLite database at dsn and applies the schema.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", withConnParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// In-memory databases are per-connection; multiple connections each get a
	// separate empty database. Limit to one connection so the schema and
	// queries all see the same data.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return db, nil
}

// withConnParams sets per-connection pragmas through the DSN so every pooled
// connection gets them. Write transactions start with BEGIN IMMEDIATE so two
// concurrent upserts queue on the busy timeout instead of failing on lock upgrade.
func withConnParams(dsn string) string {
	if dsn == ":memory:" {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}
