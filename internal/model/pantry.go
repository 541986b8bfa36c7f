package model

import "time"

// ActivityType classifies a ledger entry.
type ActivityType string

const (
	ActivityAdd    ActivityType = "ADD"
	ActivityRemove ActivityType = "REMOVE"
	ActivityAdjust ActivityType = "ADJUST"
)

// ActivitySource records where a ledger entry originated.
type ActivitySource string

const (
	SourceManual      ActivitySource = "MANUAL"
	SourceReceiptScan ActivitySource = "RECEIPT_SCAN"
	SourceVisualUsage ActivitySource = "VISUAL_USAGE"
)

// PantryItem is a single tracked inventory row, owned by exactly one user.
type PantryItem struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Barcode     *string   `db:"barcode" json:"barcode,omitempty"`
	Quantity    float64   `db:"quantity" json:"quantity"`
	Unit        string    `db:"unit" json:"unit"`
	Category    string    `db:"category" json:"category"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Activity is an immutable ledger entry. ItemName is a snapshot of the item's
// name at write time and is allowed to go stale.
type Activity struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"user_id"`
	ItemID    string         `db:"item_id" json:"item_id"`
	ItemName  string         `db:"item_name" json:"item_name"`
	Type      ActivityType   `db:"type" json:"type"`
	Amount    float64        `db:"amount" json:"amount"`
	Timestamp time.Time      `db:"timestamp" json:"timestamp"`
	Source    ActivitySource `db:"source" json:"source"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// CreateItemInput carries the caller-supplied fields for a new item.
// Inputs are validated upstream; the store trusts them.
type CreateItemInput struct {
	Name     string  `json:"name"`
	Barcode  *string `json:"barcode,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

// UpdateItemInput is a field diff: nil means "leave unchanged".
type UpdateItemInput struct {
	Name     *string  `json:"name,omitempty"`
	Barcode  *string  `json:"barcode,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	Category *string  `json:"category,omitempty"`
}

// VisualDetection is one recognized item from a visual usage capture,
// matched against the pantry by case-insensitive name.
type VisualDetection struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// VisualUsageResult is the partial-success outcome of a detection batch.
type VisualUsageResult struct {
	Processed  int        `json:"processed"`
	Activities []Activity `json:"activities"`
	Errors     []string   `json:"errors"`
}
