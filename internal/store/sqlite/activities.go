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
)

const activityColumns = "id, user_id, item_id, item_name, type, amount, timestamp, source, created_at"

// GetActivities returns ledger entries newest-first, optionally narrowed to
// one item.
func (s *Store) GetActivities(ctx context.Context, userID string, limit, offset int, itemID string) ([]model.Activity, error) {
	query := `
		SELECT ` + activityColumns + `
		FROM activities
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`
	args := []any{userID, limit, offset}
	if itemID != "" {
		query = `
			SELECT ` + activityColumns + `
			FROM activities
			WHERE user_id = ? AND item_id = ?
			ORDER BY timestamp DESC
			LIMIT ? OFFSET ?
		`
		args = []any{userID, itemID, limit, offset}
	}

	rs, err := s.db.QueryContext(ctx, query, args...)
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
	query := "SELECT COUNT(*) FROM activities WHERE user_id = ?"
	args := []any{userID}
	if itemID != "" {
		query += " AND item_id = ?"
		args = append(args, itemID)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting activities for user %s: %w", userID, err)
	}
	return count, nil
}

// LogActivity appends a ledger entry and moves the item's quantity in one
// atomic unit. Returns nil when the item does not exist; nothing is written.
func (s *Store) LogActivity(ctx context.Context, userID, itemID string, typ model.ActivityType, amount float64, source model.ActivitySource) (*model.Activity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	item, err := rowmap.ScanItem(tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM pantry_items
		WHERE id = ? AND user_id = ?
	`, itemID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, act.ID, act.UserID, act.ItemID, act.ItemName, string(act.Type),
		act.Amount, fmtTime(now), string(act.Source), fmtTime(now)); err != nil {
		return nil, fmt.Errorf("inserting activity for item %s: %w", itemID, err)
	}

	newQty := store.ClampQuantity(item.Quantity + delta)
	if _, err := tx.ExecContext(ctx, `
		UPDATE pantry_items SET quantity = ?, last_updated = ?
		WHERE id = ? AND user_id = ?
	`, newQty, fmtTime(now), itemID, userID); err != nil {
		return nil, fmt.Errorf("updating quantity for item %s: %w", itemID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ledger update for item %s: %w", itemID, err)
	}
	return act, nil
}

// ProcessVisualUsage records REMOVE activities for a detection batch,
// collecting per-item failures without aborting.
func (s *Store) ProcessVisualUsage(ctx context.Context, userID string, detections []model.VisualDetection, source model.ActivitySource) (*model.VisualUsageResult, error) {
	return store.RunVisualUsage(ctx, s, userID, detections, source)
}
