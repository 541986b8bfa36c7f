package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/rowmap"
)

// GetProductByBarcode returns a cached product lookup or nil on a miss.
func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	p, err := rowmap.ScanProduct(s.db.QueryRowContext(ctx, `
		SELECT barcode, name, brand, category, image_url, created_at
		FROM product_cache
		WHERE barcode = ?
	`, barcode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching product %s: %w", barcode, err)
	}
	return p, nil
}

// SaveProduct upserts a barcode cache entry.
func (s *Store) SaveProduct(ctx context.Context, p model.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_cache (barcode, name, brand, category, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(barcode) DO UPDATE SET
			name = excluded.name,
			brand = excluded.brand,
			category = excluded.category,
			image_url = excluded.image_url
	`, p.Barcode, p.Name, p.Brand, p.Category, p.ImageURL, fmtTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("saving product %s: %w", p.Barcode, err)
	}
	return nil
}

// LogClientError stores a client-reported error.
func (s *Store) LogClientError(ctx context.Context, e model.ClientError) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_errors (id, user_id, message, stack, url, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.Message, e.Stack, e.URL, e.UserAgent, fmtTime(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("logging client error: %w", err)
	}
	return nil
}

// GetClientErrors returns the most recent client error reports.
func (s *Store) GetClientErrors(ctx context.Context, limit int) ([]model.ClientError, error) {
	rs, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, stack, url, user_agent, created_at
		FROM client_errors
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying client errors: %w", err)
	}
	defer rs.Close()

	var out []model.ClientError
	for rs.Next() {
		e, err := rowmap.ScanClientError(rs)
		if err != nil {
			return nil, fmt.Errorf("scanning client error row: %w", err)
		}
		out = append(out, *e)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterating client error rows: %w", err)
	}
	return out, nil
}
