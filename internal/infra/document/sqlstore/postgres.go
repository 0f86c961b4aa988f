package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const (
	postgresDriver = "pgx"
	// DefaultPostgresDSN is used when no DSN is configured.
	DefaultPostgresDSN = "postgres://localhost/hotelcare?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var postgresDialect = dialect{
	name: "postgres",
	ddl: `CREATE TABLE IF NOT EXISTS documents (
		user_id TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		version BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	upsert: `INSERT INTO documents(user_id, payload, version, updated_at) VALUES($1, $2, $3, $4)
		ON CONFLICT(user_id) DO UPDATE SET payload=EXCLUDED.payload, version=documents.version+1, updated_at=EXCLUDED.updated_at
		RETURNING version`,
	selectQ: `SELECT payload, version, updated_at FROM documents WHERE user_id = $1`,
}

// OpenPostgres connects to dsn (DefaultPostgresDSN when empty), ensures the
// documents table exists and returns the store.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		dsn = DefaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s, err := newStore(ctx, db, postgresDialect, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
