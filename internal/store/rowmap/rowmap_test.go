package rowmap

import (
	"testing"
	"time"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
)

// fakeRow feeds canned column values through the Scanner interface, the way
// a live cursor would.
type fakeRow struct {
	values []any
}

func (f *fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = f.values[i]
	}
	return nil
}

func TestScanItem_PostgresShapedRow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := &fakeRow{values: []any{
		"item-1", "user-1", "Apple", nil, float64(5), "pieces", "produce", now, now,
	}}

	item, err := ScanItem(row)
	if err != nil {
		t.Fatal(err)
	}
	if item.ID != "item-1" || item.UserID != "user-1" {
		t.Errorf("identity = %q/%q", item.ID, item.UserID)
	}
	if item.Barcode != nil {
		t.Errorf("Barcode = %v, want nil", *item.Barcode)
	}
	if item.Quantity != 5 {
		t.Errorf("Quantity = %v, want 5", item.Quantity)
	}
	if !item.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v", item.LastUpdated)
	}
}

func TestScanItem_SQLiteShapedRow(t *testing.T) {
	// SQLite hands back TEXT timestamps and may widen whole REALs to int64.
	row := &fakeRow{values: []any{
		"item-2", "user-1", "Milk", "0123456789012", int64(2), "liters", "dairy",
		"2026-03-01T12:00:00Z", "2026-02-27T09:30:00.5Z",
	}}

	item, err := ScanItem(row)
	if err != nil {
		t.Fatal(err)
	}
	if item.Barcode == nil || *item.Barcode != "0123456789012" {
		t.Errorf("Barcode = %v", item.Barcode)
	}
	if item.Quantity != 2 {
		t.Errorf("Quantity = %v, want 2", item.Quantity)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if !item.LastUpdated.Equal(want) {
		t.Errorf("LastUpdated = %v, want %v", item.LastUpdated, want)
	}
	if item.CreatedAt.Nanosecond() != 500000000 {
		t.Errorf("CreatedAt = %v, fractional seconds lost", item.CreatedAt)
	}
}

func TestScanActivity(t *testing.T) {
	row := &fakeRow{values: []any{
		"act-1", "user-1", "item-1", "Apple", "REMOVE", 3.5,
		"2026-03-01T12:00:00Z", "VISUAL_USAGE", "2026-03-01T12:00:00Z",
	}}

	act, err := ScanActivity(row)
	if err != nil {
		t.Fatal(err)
	}
	if act.Type != model.ActivityRemove {
		t.Errorf("Type = %q", act.Type)
	}
	if act.Source != model.SourceVisualUsage {
		t.Errorf("Source = %q", act.Source)
	}
	if act.Amount != 3.5 {
		t.Errorf("Amount = %v", act.Amount)
	}
	if act.ItemName != "Apple" {
		t.Errorf("ItemName = %q", act.ItemName)
	}
}

func TestScanSubscription_FreeTierDefaults(t *testing.T) {
	row := &fakeRow{values: []any{
		"sub-1", "user-1", "free", nil, nil, nil, nil, nil, nil,
		"2026-03-01T12:00:00Z", "2026-03-01T12:00:00Z",
	}}

	sub, err := ScanSubscription(row)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Tier != model.TierFree {
		t.Errorf("Tier = %q", sub.Tier)
	}
	if sub.StripeCustomerID != nil || sub.SubscriptionEndDate != nil {
		t.Error("expected nil Stripe references on a free-tier row")
	}
}

func TestScanUsageLimits(t *testing.T) {
	row := &fakeRow{values: []any{
		"usage-1", "user-1", "2026-03", int64(4), int64(10), int64(0),
		"2026-03-01T12:00:00Z", "2026-03-01T12:00:00Z",
	}}

	u, err := ScanUsageLimits(row)
	if err != nil {
		t.Fatal(err)
	}
	if u.Month != "2026-03" {
		t.Errorf("Month = %q", u.Month)
	}
	if u.ReceiptScans != 4 || u.AICalls != 10 || u.VoiceSessions != 0 {
		t.Errorf("counters = %d/%d/%d", u.ReceiptScans, u.AICalls, u.VoiceSessions)
	}
}

func TestScanItem_BadTimestamp(t *testing.T) {
	row := &fakeRow{values: []any{
		"item-1", "user-1", "Apple", nil, 5.0, "pieces", "produce", "not-a-time", "also-bad",
	}}

	if _, err := ScanItem(row); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}
