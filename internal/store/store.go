// Package store defines the storage contract for the pantry persistence core.
//
// Store is implemented twice: by the embedded SQLite engine (store/sqlite)
// and by the pooled PostgreSQL engine (store/postgres). Callers hold a Store
// and stay agnostic to which engine backs it; store/dispatch selects one at
// process start.
package store

import (
	"context"
	"errors"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
)

// ErrNoRowsAffected reports a write that was expected to touch exactly one
// row but touched none.
var ErrNoRowsAffected = errors.New("no rows affected")

// Rows is the minimal row cursor shared by both engines. pgx rows satisfy it
// directly; the SQLite engine wraps database/sql rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Tx runs statements inside one atomic unit. Queries use the same
// ?-placeholder convention as the Store escape hatch.
type Tx interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Execute(ctx context.Context, query string, args ...any) (int64, error)
}

// Store is the tenant-scoped persistence contract. Every operation takes the
// owning userID; no call ever returns another tenant's rows. Lookups that
// miss return (nil, nil), not an error.
type Store interface {
	// Inventory.
	GetAllItems(ctx context.Context, userID, category string) ([]model.PantryItem, error)
	GetItemByID(ctx context.Context, userID, id string) (*model.PantryItem, error)
	GetItemByName(ctx context.Context, userID, name string) (*model.PantryItem, error)
	CreateItem(ctx context.Context, userID string, in model.CreateItemInput) (*model.PantryItem, error)
	UpdateItem(ctx context.Context, userID, id string, in model.UpdateItemInput) (*model.PantryItem, error)
	DeleteItem(ctx context.Context, userID, id string) (bool, error)
	AdjustItemQuantity(ctx context.Context, userID, id string, delta float64) (*model.PantryItem, error)
	GetCategories(ctx context.Context, userID string) ([]string, error)

	// Activity ledger.
	GetActivities(ctx context.Context, userID string, limit, offset int, itemID string) ([]model.Activity, error)
	GetActivityCount(ctx context.Context, userID, itemID string) (int, error)
	LogActivity(ctx context.Context, userID, itemID string, typ model.ActivityType, amount float64, source model.ActivitySource) (*model.Activity, error)
	ProcessVisualUsage(ctx context.Context, userID string, detections []model.VisualDetection, source model.ActivitySource) (*model.VisualUsageResult, error)

	// Product barcode cache.
	GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	SaveProduct(ctx context.Context, p model.Product) error

	// Client error log.
	LogClientError(ctx context.Context, e model.ClientError) error
	GetClientErrors(ctx context.Context, limit int) ([]model.ClientError, error)

	// Raw escape hatch, used only by the tier gate. Queries use ?
	// placeholders; the PostgreSQL engine rebinds them to $n.
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Execute(ctx context.Context, query string, args ...any) (int64, error)
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}
