// Package sqlite implements the store contract on an embedded SQLite
// database using pure-Go SQLite (modernc.org/sqlite).
//
// The engine holds a single persistent connection; every call executes
// synchronously on the caller. WAL journaling keeps readers unblocked while
// a writer commits.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/thindery/pantry-pal-api-sub000/internal/store"
)

// Store is the embedded-engine implementation of store.Store.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" for an in-memory database.
func Open(path string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One persistent connection: SQLite serializes writers anyway, and an
	// in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("sqlite store ready")
	return s, nil
}

// Close shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// rows adapts *sql.Rows to store.Rows (Close drops the error).
type rows struct {
	*sql.Rows
}

func (r rows) Close() { _ = r.Rows.Close() }

// Query is the raw escape hatch. SQLite uses ? placeholders natively.
func (s *Store) Query(ctx context.Context, query string, args ...any) (store.Rows, error) {
	rs, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows{rs}, nil
}

// Execute runs a statement and reports affected rows.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("execute: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// Transaction runs fn as one atomic unit. If fn returns an error the
// transaction is rolled back before the error propagates.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t sqliteTx) Query(ctx context.Context, query string, args ...any) (store.Rows, error) {
	rs, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tx query: %w", err)
	}
	return rows{rs}, nil
}

func (t sqliteTx) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("tx execute: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("tx rows affected: %w", err)
	}
	return n, nil
}

// fmtTime encodes timestamps as RFC 3339 TEXT with fixed-width fractional
// seconds, so lexicographic TEXT ordering matches time ordering.
func fmtTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
