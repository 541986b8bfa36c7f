// Package postgres implements the store contract on a pooled PostgreSQL
// connection (jackc/pgx/v5).
//
// Every logical operation may suspend while awaiting I/O; transactions check
// out one connection, issue BEGIN, and commit or roll back before releasing
// it. The engine's default read-committed isolation means concurrent
// read-then-write quantity updates against the same item are last-writer-
// wins, which is accepted behavior for this system.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/thindery/pantry-pal-api-sub000/internal/store"
)

// Config carries the pool knobs the engine honors.
type Config struct {
	DSN             string
	MaxConns        int32
	ConnIdleTimeout time.Duration
	ConnectTimeout  time.Duration
}

// Store is the pooled-engine implementation of store.Store.
type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// Open builds the pool, verifies connectivity, and applies pending
// migrations.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.ConnIdleTimeout > 0 {
		pc.MaxConnIdleTime = cfg.ConnIdleTimeout
	}
	if cfg.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool, log: log}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Int32("max_conns", pc.MaxConns).Msg("postgres store ready")
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Query is the raw escape hatch. Callers write ? placeholders; they are
// rebound to $n here. Literal question marks inside SQL strings are not
// supported by the hatch.
func (s *Store) Query(ctx context.Context, query string, args ...any) (store.Rows, error) {
	rs, err := s.pool.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rs, nil
}

// Execute runs a statement and reports affected rows.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := s.pool.Exec(ctx, rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("execute: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Transaction checks out a connection, runs fn between BEGIN and COMMIT, and
// rolls back on any failure before returning the error.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) Query(ctx context.Context, query string, args ...any) (store.Rows, error) {
	rs, err := t.tx.Query(ctx, rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("tx query: %w", err)
	}
	return rs, nil
}

func (t pgTx) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("tx execute: %w", err)
	}
	return tag.RowsAffected(), nil
}

// rebind rewrites ? placeholders to $1..$n.
func rebind(query string) string {
	if !strings.ContainsRune(query, '?') {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
