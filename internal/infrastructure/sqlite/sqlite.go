// Package sqlite is the single-file store used when STORAGE=sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

// Open creates the file (and its directory) if needed and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One writer; also keeps a :memory: database alive across calls.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	db := &DB{sql: sqldb}
	if err := db.migrate(ctx); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error                  { return d.sql.Close() }
func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS asset_snapshots (
			symbol TEXT NOT NULL,
			asset_type TEXT NOT NULL,
			price TEXT NOT NULL,
			source TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, asset_type)
		);`,
		`CREATE TABLE IF NOT EXISTS refresh_jobs (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			asset_type TEXT NOT NULL,
			asset TEXT NOT NULL,
			idempotency_key TEXT UNIQUE,
			status TEXT NOT NULL DEFAULT 'queued',
			error TEXT,
			requested_at INTEGER NOT NULL,
			completed_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS refresh_jobs_status_idx ON refresh_jobs(status, requested_at);`,
		`CREATE TABLE IF NOT EXISTS asset_price_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			asset_type TEXT NOT NULL,
			price TEXT NOT NULL,
			quoted_at INTEGER NOT NULL,
			source TEXT NOT NULL,
			update_id TEXT REFERENCES refresh_jobs(id) ON DELETE SET NULL,
			inserted_at INTEGER NOT NULL,
			UNIQUE (symbol, asset_type, quoted_at, source)
		);`,
	}
	for _, s := range stmts {
		if _, err := d.sql.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

func (d *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return d.sql
}

// UnitOfWork runs fn in one transaction shared through the context.
type UnitOfWork struct{ DB *DB }

func NewUnitOfWork(db *DB) *UnitOfWork { return &UnitOfWork{DB: db} }

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := u.DB.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
