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
)

const activityColumns = `id, user_id, item_id, item_name, type, amount, "timestamp", source, created_at`

// GetActivities returns ledger entries newest-first, optionally narrowed to
// one item.
func (s *Store) GetActivities(ctx context.Context, userID string, limit, offset int, itemID string) ([]model.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE user_id = $1
		ORDER BY "timestamp" DESC
		LIMIT $2 OFFSET $3
	`
	args := []any{userID, limit, offset}
	if itemID != "" {
		query = `
			SELECT ` + activityColumns + `
			FROM activities
			WHERE user_id = $1 AND item_id = $2
			ORDER BY "timestamp" DESC
			LIMIT $3 OFFSET $4
		`
		args = []any{userID, itemID, limit, offset}
	}

	rs, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities for user %s: %w", userID, err)
	}
	defer rs.Close()

	var activities []model.Activity
	for rs.Next() {
		act, err := rowmap.ScanActivity(rs)
		if err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		activities = append(activities, *act)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}
	return activities, nil
}

// GetActivityCount counts ledger entries, optionally for one item.
func (s *Store) GetActivityCount(ctx context.Context, userID, itemID string) (int, error) {
	query := "SELECT COUNT(*) FROM activities WHERE user_id = $1"
	args := []any{userID}
	if itemID != "" {
		query += " AND item_id = $2"
		args = append(args, itemID)
	}

	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting activities for user %s: %w", userID, err)
	}
	return count, nil
}

// LogActivity appends a ledger entry and moves the item's quantity in one
// atomic unit. Returns nil when the item does not exist; nothing is written.
func (s *Store) LogActivity(ctx context.Context, userID, itemID string, typ model.ActivityType, amount float64, source model.ActivitySource) (*model.Activity, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	item, err := rowmap.ScanItem(tx.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM pantry_items
		WHERE id = $1 AND user_id = $2
	`, itemID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading item %s for ledger: %w", itemID, err)
	}

	delta, recorded := store.ResolveActivity(typ, amount, item.Quantity)
	now := time.Now().UTC()
	act := &model.Activity{
		ID:        uuid.NewString(),
		UserID:    userID,
		ItemID:    itemID,
		ItemName:  item.Name,
		Type:      typ,
		Amount:    recorded,
		Timestamp: now,
		Source:    source,
		CreatedAt: now,
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, act.ID, act.UserID, act.ItemID, act.ItemName, string(act.Type),
		act.Amount, now, string(act.Source), now); err != nil {
		return nil, fmt.Errorf("inserting activity for item %s: %w", itemID, err)
	}

	newQty := store.ClampQuantity(item.Quantity + delta)
	if _, err := tx.Exec(ctx, `
		UPDATE pantry_items SET quantity = $1, last_updated = $2
		WHERE id = $3 AND user_id = $4
	`, newQty, now, itemID, userID); err != nil {
		return nil, fmt.Errorf("updating quantity for item %s: %w", itemID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing ledger update for item %s: %w", itemID, err)
	}
	return act, nil
}

// ProcessVisualUsage records REMOVE activities for a detection batch,
// collecting per-item failures without aborting.
func (s *Store) ProcessVisualUsage(ctx context.Context, userID string, detections []model.VisualDetection, source model.ActivitySource) (*model.VisualUsageResult, error) {
	return store.RunVisualUsage(ctx, s, userID, detections, source)
}
