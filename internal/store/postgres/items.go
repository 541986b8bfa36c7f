package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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
		WHERE user_id = $1
		ORDER BY LOWER(name), name
	`
	args := []any{userID}
	if category != "" {
		query = `
			SELECT ` + itemColumns + `
			FROM pantry_items
			WHERE user_id = $1 AND category = $2
			ORDER BY LOWER(name), name
		`
		args = append(args, category)
	}

	rs, err := s.pool.Query(ctx, query, args...)
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
		WHERE id = $1 AND user_id = $2
	`
	item, err := rowmap.ScanItem(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)
	`
	item, err := rowmap.ScanItem(s.pool.QueryRow(ctx, query, userID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching item by name %q: %w", name, err)
	}
	return item, nil
}

// CreateItem persists a new item and returns the constructed entity. An
// insert that returns without error is trusted.
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

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO pantry_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, item.ID, item.UserID, item.Name, item.Barcode, item.Quantity,
		item.Unit, item.Category, now, now); err != nil {
		return nil, fmt.Errorf("inserting item for user %s: %w", userID, err)
	}
	return item, nil
}

// UpdateItem applies a field diff, always bumping last_updated. Returns nil
// when the id/tenant pair does not exist (zero affected rows).
func (s *Store) UpdateItem(ctx context.Context, userID, id string, in model.UpdateItemInput) (*model.PantryItem, error) {
	clause, args := sqlgen.BuildItemUpdate(in, sqlgen.Postgres, time.Now().UTC())
	n := len(args)
	query := fmt.Sprintf(
		"UPDATE pantry_items SET %s WHERE id = $%d AND user_id = $%d",
		clause, n+1, n+2,
	)
	args = append(args, id, userID)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating item %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return s.GetItemByID(ctx, userID, id)
}

// DeleteItem reports whether a row was removed. Activities cascade with the
// item.
func (s *Store) DeleteItem(ctx context.Context, userID, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM pantry_items WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting item %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
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
	if _, err := s.pool.Exec(ctx, `
		UPDATE pantry_items SET quantity = $1, last_updated = $2
		WHERE id = $3 AND user_id = $4
	`, item.Quantity, now, id, userID); err != nil {
		return nil, fmt.Errorf("adjusting quantity for item %s: %w", id, err)
	}
	return item, nil
}

// GetCategories returns the tenant's distinct categories, case-insensitively
// ordered.
func (s *Store) GetCategories(ctx context.Context, userID string) ([]string, error) {
	rs, err := s.pool.Query(ctx, `
		SELECT category
		FROM pantry_items
		WHERE user_id = $1 AND category != ''
		GROUP BY category
		ORDER BY LOWER(category), category
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
