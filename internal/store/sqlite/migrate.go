package sqlite

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrate applies any migration files not yet recorded in the migrations
// ledger, in filename order, then runs additive column checks for schema
// changes ALTER TABLE alone cannot express. Safe to run on every start.
func (s *Store) migrate(ctx context.Context) error {
	const ledger = `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL UNIQUE,
			applied_at TEXT NOT NULL
		)`
	if _, err := s.db.ExecContext(ctx, ledger); err != nil {
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
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM migrations WHERE filename = ?", name,
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
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO migrations (filename, applied_at) VALUES (?, datetime('now'))", name,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		s.log.Info().Str("migration", name).Msg("applied migration")
	}

	// SQLite cannot add a NOT NULL column to an existing table, so the
	// source column arrives nullable and NOT NULL is enforced at the
	// application layer only.
	if err := s.addColumnIfMissing(ctx, "activities", "source", "TEXT",
		"UPDATE activities SET source = 'MANUAL' WHERE source IS NULL"); err != nil {
		return err
	}
	return nil
}

// addColumnIfMissing inspects table metadata and adds the column with a
// backfill for legacy rows, skipping when it already exists.
func (s *Store) addColumnIfMissing(ctx context.Context, table, column, ddl, backfill string) error {
	rs, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rs.Close()

	exists := false
	for rs.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt any
		if err := rs.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("scan table_info for %s: %w", table, err)
		}
		if name == column {
			exists = true
		}
	}
	if err := rs.Err(); err != nil {
		return fmt.Errorf("iterate table_info for %s: %w", table, err)
	}
	if exists {
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl),
	); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	if backfill != "" {
		if _, err := s.db.ExecContext(ctx, backfill); err != nil {
			return fmt.Errorf("backfill column %s.%s: %w", table, column, err)
		}
	}
	s.log.Info().Str("table", table).Str("column", column).Msg("added missing column")
	return nil
}
