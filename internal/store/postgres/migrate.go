package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrate applies unrecorded migration files in filename order, one awaited
// statement at a time, then runs additive column checks. Safe on every start.
func (s *Store) migrate(ctx context.Context) error {
	const ledger = `
		CREATE TABLE IF NOT EXISTS migrations (
			id SERIAL PRIMARY KEY,
			filename TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := s.pool.Exec(ctx, ledger); err != nil {
		return fmt.Errorf("create migrations ledger: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		var applied int
		err := s.pool.QueryRow(ctx,
			"SELECT COUNT(*) FROM migrations WHERE filename = $1", name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		for _, stmt := range strings.Split(string(content), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := s.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
		if _, err := s.pool.Exec(ctx,
			"INSERT INTO migrations (filename) VALUES ($1)", name,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		s.log.Info().Str("migration", name).Msg("applied migration")
	}

	// Mirrors the embedded engine's legacy-row path: the source column is
	// added after the fact and backfilled, nullable at the schema level.
	if err := s.addColumnIfMissing(ctx, "activities", "source", "TEXT",
		"UPDATE activities SET source = 'MANUAL' WHERE source IS NULL"); err != nil {
		return err
	}
	return nil
}

// addColumnIfMissing consults information_schema and adds the column with a
// backfill for legacy rows, skipping when it already exists.
func (s *Store) addColumnIfMissing(ctx context.Context, table, column, ddl, backfill string) error {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_name = $1 AND column_name = $2
	`, table, column).Scan(&count)
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", table, err)
	}
	if count > 0 {
		return nil
	}

	if _, err := s.pool.Exec(ctx,
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl),
	); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	if backfill != "" {
		if _, err := s.pool.Exec(ctx, backfill); err != nil {
			return fmt.Errorf("backfill column %s.%s: %w", table, column, err)
		}
	}
	s.log.Info().Str("table", table).Str("column", column).Msg("added missing column")
	return nil
}
