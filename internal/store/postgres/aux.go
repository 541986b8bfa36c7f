package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/rowmap"
)

// GetProductByBarcode returns a cached product lookup or nil on a miss.
func (s *Store) GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	p, err := rowmap.ScanProduct(s.pool.QueryRow(ctx, `
		SELECT barcode, name, brand, category, image_url, created_at
		FROM product_cache
		WHERE barcode = $1
	`, barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching product %s: %w", barcode, err)
	}
	return p, nil
}

// SaveProduct upserts a barcode cache entry.
func (s *Store) SaveProduct(ctx context.Context, p model.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO product_cache (barcode, name, brand, category, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (barcode) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url
	`, p.Barcode, p.Name, p.Brand, p.Category, p.ImageURL, time.Now().UTC())
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO client_errors (id, user_id, message, stack, url, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.UserID, e.Message, e.Stack, e.URL, e.UserAgent, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("logging client error: %w", err)
	}
	return nil
}

// GetClientErrors returns the most recent client error reports.
func (s *Store) GetClientErrors(ctx context.Context, limit int) ([]model.ClientError, error) {
	rs, err := s.pool.Query(ctx, `
		SELECT id, user_id, message, stack, url, user_agent, created_at
		FROM client_errors
		ORDER BY created_at DESC
		LIMIT $1
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
