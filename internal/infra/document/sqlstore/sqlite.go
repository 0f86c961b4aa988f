package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var sqliteDialect = dialect{
	name: "sqlite",
	ddl: `CREATE TABLE IF NOT EXISTS documents (
		user_id TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		version INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	upsert: `INSERT INTO documents(user_id, payload, version, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET payload=excluded.payload, version=documents.version+1, updated_at=excluded.updated_at
		RETURNING version`,
	selectQ: `SELECT payload, version, updated_at FROM documents WHERE user_id = ?`,
}

// OpenSQLite opens (creating if needed) a sqlite database file at path.
func OpenSQLite(ctx context.Context, path string, opts Options) (*Store, error) {
	if path == "" {
		path = "hotelcare.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers; sqlite locks the file anyway.
	db.SetMaxOpenConns(1)
	s, err := newStore(ctx, db, sqliteDialect, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
