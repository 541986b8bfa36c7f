package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
	"github.com/thindery/pantry-pal-api-sub000/internal/store"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/rowmap"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/sqlgen"
)

const itemColumns = "id, user_id, name, barcode, quantity, unit, category, last_updated, created_at"

// GetAllItems returns the tenant's items, optionally filtered by exact
// category, ordered by name treating case as insignificant.
func (s *Store) GetAllItems(ctx context.Context, userID, category string) ([]model.PantryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM pantry_items
		WHERE user_id = ?
		ORDER BY name COLLATE NOCASE
	`
	args := []any{userID}
	if category != "" {
		query = `
			SELECT ` + itemColumns + `
			FROM pantry_items
			WHERE user_id = ? AND category = ?
			ORDER BY name COLLATE NOCASE
		`
		args = append(args, category)
	}

	rs, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items for user %s: %w", userID, err)
	}
	defer rs.Close()

	var items []model.PantryItem
	for rs.Next() {
		item, err := rowmap.ScanItem(rs)
		if err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}
	return items, nil
}

// GetItemByID returns the item or nil when no row matches the id/tenant pair.
func (s *Store) GetItemByID(ctx context.Context, userID, id string) (*model.PantryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM pantry_items
		WHERE id = ? AND user_id = ?
	`
	item, err := rowmap.ScanItem(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching item %s: %w", id, err)
	}
	return item, nil
}

// GetItemByName is a case-insensitive exact-name lookup.
func (s *Store) GetItemByName(ctx context.Context, userID, name string) (*model.PantryItem, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM pantry_items
		WHERE user_id = ? AND name = ? COLLATE NOCASE
	`
	item, err := rowmap.ScanItem(s.db.QueryRowContext(ctx, query, userID, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching item by name %q: %w", name, err)
	}
	return item, nil
}

// CreateItem persists a new item and returns the constructed entity.
func (s *Store) CreateItem(ctx context.Context, userID string, in model.CreateItemInput) (*model.PantryItem, error) {
	now := time.Now().UTC()
	item := &model.PantryItem{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        in.Name,
		Barcode:     in.Barcode,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		Category:    in.Category,
		LastUpdated: now,
		CreatedAt:   now,
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO pantry_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.UserID, item.Name, item.Barcode, item.Quantity,
		item.Unit, item.Category, fmtTime(now), fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting item for user %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("insert result for item %s: %w", item.ID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("inserting item %s: %w", item.ID, store.ErrNoRowsAffected)
	}
	return item, nil
}

// UpdateItem applies a field diff, always bumping last_updated. Returns nil
// when the id/tenant pair does not exist.
func (s *Store) UpdateItem(ctx context.Context, userID, id string, in model.UpdateItemInput) (*model.PantryItem, error) {
	existing, err := s.GetItemByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	clause, args := sqlgen.BuildItemUpdate(in, sqlgen.SQLite, fmtTime(time.Now().UTC()))
	args = append(args, id, userID)
	if _, err := s.db.ExecContext(ctx,
		"UPDATE pantry_items SET "+clause+" WHERE id = ? AND user_id = ?", args...,
	); err != nil {
		return nil, fmt.Errorf("updating item %s: %w", id, err)
	}
	return s.GetItemByID(ctx, userID, id)
}

// DeleteItem reports whether a row was removed. Activities cascade with the
// item.
func (s *Store) DeleteItem(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM pantry_items WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete result for item %s: %w", id, err)
	}
	return n > 0, nil
}

// AdjustItemQuantity applies a signed delta, clamped at zero. Last writer
// wins on concurrent adjustments.
func (s *Store) AdjustItemQuantity(ctx context.Context, userID, id string, delta float64) (*model.PantryItem, error) {
	item, err := s.GetItemByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	item.Quantity = store.ClampQuantity(item.Quantity + delta)
	item.LastUpdated = now
	if _, err := s.db.ExecContext(ctx, `
		UPDATE pantry_items SET quantity = ?, last_updated = ?
		WHERE id = ? AND user_id = ?
	`, item.Quantity, fmtTime(now), id, userID); err != nil {
		return nil, fmt.Errorf("adjusting quantity for item %s: %w", id, err)
	}
	return item, nil
}

// GetCategories returns the tenant's distinct categories, case-insensitively
// ordered.
func (s *Store) GetCategories(ctx context.Context, userID string) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM pantry_items
		WHERE user_id = ? AND category != ''
		ORDER BY category COLLATE NOCASE
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories for user %s: %w", userID, err)
	}
	defer rs.Close()

	var categories []string
	for rs.Next() {
		var c string
		if err := rs.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}
