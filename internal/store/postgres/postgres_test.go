package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
	"github.com/thindery/pantry-pal-api-sub000/internal/store"
)

func TestRebind(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ?", "SELECT * FROM t WHERE a = $1"},
		{"INSERT INTO t VALUES (?, ?, ?)", "INSERT INTO t VALUES ($1, $2, $3)"},
		{"UPDATE t SET a = ? WHERE b = ? AND c = ?", "UPDATE t SET a = $1 WHERE b = $2 AND c = $3"},
	}
	for _, c := range cases {
		if got := rebind(c.in); got != c.want {
			t.Errorf("rebind(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// newTestStore connects to TEST_DATABASE_URL, skipping when it is not set.
// Tests isolate themselves with fresh tenant IDs instead of truncating.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set, skip postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s, err := Open(ctx, Config{
		DSN:             dsn,
		MaxConns:        4,
		ConnIdleTimeout: time.Minute,
		ConnectTimeout:  5 * time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open postgres store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTenant() string { return "test-" + uuid.NewString() }

func TestPostgres_ItemLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newTenant()

	item, err := s.CreateItem(ctx, user, model.CreateItemInput{
		Name: "Apple", Quantity: 5, Unit: "pieces", Category: "produce",
	})
	if err != nil {
		t.Fatal(err)
	}
	if item.ID == "" || item.Quantity != 5 {
		t.Fatalf("created item = %+v", item)
	}

	qty := 2.0
	updated, err := s.UpdateItem(ctx, user, item.ID, model.UpdateItemInput{Quantity: &qty})
	if err != nil {
		t.Fatal(err)
	}
	if updated == nil || updated.Quantity != 2 || updated.Name != "Apple" {
		t.Fatalf("updated item = %+v", updated)
	}

	byName, err := s.GetItemByName(ctx, user, "aPPle")
	if err != nil {
		t.Fatal(err)
	}
	if byName == nil {
		t.Fatal("case-insensitive name lookup missed")
	}

	removed, err := s.DeleteItem(ctx, user, item.ID)
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
}

func TestPostgres_UpdateItem_NotFound(t *testing.T) {
	s := newTestStore(t)

	name := "x"
	got, err := s.UpdateItem(context.Background(), newTenant(), uuid.NewString(), model.UpdateItemInput{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("expected nil for missing item")
	}
}

func TestPostgres_TenantScopeAndOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u1, u2 := newTenant(), newTenant()

	for _, n := range []string{"banana", "Apple", "cherry"} {
		if _, err := s.CreateItem(ctx, u1, model.CreateItemInput{Name: n}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.CreateItem(ctx, u2, model.CreateItemInput{Name: "Apple"}); err != nil {
		t.Fatal(err)
	}

	items, err := s.GetAllItems(ctx, u1, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	want := []string{"Apple", "banana", "cherry"}
	for i, w := range want {
		if items[i].Name != w {
			t.Errorf("items[%d] = %q, want %q", i, items[i].Name, w)
		}
	}
}

func TestPostgres_LedgerSemantics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newTenant()

	item, err := s.CreateItem(ctx, user, model.CreateItemInput{Name: "Milk", Quantity: 5})
	if err != nil {
		t.Fatal(err)
	}

	act, err := s.LogActivity(ctx, user, item.ID, model.ActivityRemove, 10, model.SourceManual)
	if err != nil {
		t.Fatal(err)
	}
	if act.Amount != 5 {
		t.Errorf("recorded amount = %v, want 5", act.Amount)
	}
	got, _ := s.GetItemByID(ctx, user, item.ID)
	if got.Quantity != 0 {
		t.Errorf("Quantity = %v, want 0", got.Quantity)
	}

	act, err = s.LogActivity(ctx, user, item.ID, model.ActivityAdjust, -3, model.SourceManual)
	if err != nil {
		t.Fatal(err)
	}
	if act.Amount != 3 {
		t.Errorf("ADJUST recorded amount = %v, want 3", act.Amount)
	}

	missing, err := s.LogActivity(ctx, user, uuid.NewString(), model.ActivityAdd, 1, model.SourceManual)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("expected nil for missing item")
	}

	n, err := s.GetActivityCount(ctx, user, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}

	if _, err := s.DeleteItem(ctx, user, item.ID); err != nil {
		t.Fatal(err)
	}
	acts, err := s.GetActivities(ctx, user, 10, 0, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 0 {
		t.Errorf("activities outlived their item: %d left", len(acts))
	}
}

func TestPostgres_EscapeHatchAndTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newTenant()

	if _, err := s.Execute(ctx, `
		INSERT INTO usage_limits (id, user_id, month, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), user, "2026-03",
		time.Now().UTC().Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		t.Fatal(err)
	}

	var scans int
	rows, err := s.Query(ctx, "SELECT receipt_scans FROM usage_limits WHERE user_id = ?", user)
	if err != nil {
		t.Fatal(err)
	}
	if !rows.Next() {
		rows.Close()
		t.Fatal("expected a usage row")
	}
	if err := rows.Scan(&scans); err != nil {
		t.Fatal(err)
	}
	rows.Close()
	if scans != 0 {
		t.Errorf("receipt_scans = %d, want 0", scans)
	}

	err = s.Transaction(ctx, func(tx store.Tx) error {
		_, err := tx.Execute(ctx,
			"UPDATE usage_limits SET receipt_scans = receipt_scans + 1 WHERE user_id = ?", user)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}
