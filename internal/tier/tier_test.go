package tier

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/sqlite"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	s, err := sqlite.Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return NewGate(s, zerolog.Nop())
}

func TestGetOrCreateUserSubscription_LazyFreeTier(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	sub, err := g.GetOrCreateUserSubscription(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if sub.Tier != model.TierFree {
		t.Errorf("Tier = %q, want free", sub.Tier)
	}
	if sub.StripeCustomerID != nil {
		t.Error("fresh row should have no Stripe customer")
	}

	again, err := g.GetOrCreateUserSubscription(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != sub.ID {
		t.Error("second access created a second row")
	}
}

func TestGetOrCreateUsageLimits_LazyZeroedMonth(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	u, err := g.GetOrCreateUsageLimits(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.ReceiptScans != 0 || u.AICalls != 0 || u.VoiceSessions != 0 {
		t.Errorf("fresh counters = %d/%d/%d, want zeros", u.ReceiptScans, u.AICalls, u.VoiceSessions)
	}
	if u.Month != monthKey() {
		t.Errorf("Month = %q, want %q", u.Month, monthKey())
	}

	again, err := g.GetOrCreateUsageLimits(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != u.ID {
		t.Error("second access created a second row")
	}
}

func TestIncrementUsage(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.IncrementUsage(ctx, "u1", MetricReceiptScans); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.IncrementUsage(ctx, "u1", MetricAICalls); err != nil {
		t.Fatal(err)
	}

	u, err := g.GetOrCreateUsageLimits(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.ReceiptScans != 3 {
		t.Errorf("ReceiptScans = %d, want 3", u.ReceiptScans)
	}
	if u.AICalls != 1 {
		t.Errorf("AICalls = %d, want 1", u.AICalls)
	}
}

func TestIncrementUsage_UnknownMetric(t *testing.T) {
	g := newTestGate(t)

	if err := g.IncrementUsage(context.Background(), "u1", Metric("drop table")); err == nil {
		t.Fatal("expected error for unknown metric")
	}
}

func TestCanAddItems_FreeTier(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	free := LimitsFor(model.TierFree)

	c, err := g.CanAddItems(ctx, "u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Allowed || c.Remaining != free.MaxItems {
		t.Errorf("check = %+v", c)
	}

	c, err = g.CanAddItems(ctx, "u1", free.MaxItems-1)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Allowed || c.Remaining != 1 {
		t.Errorf("check at cap-1 = %+v", c)
	}

	c, err = g.CanAddItems(ctx, "u1", free.MaxItems)
	if err != nil {
		t.Fatal(err)
	}
	if c.Allowed || c.Remaining != 0 {
		t.Errorf("check at cap = %+v", c)
	}
}

func TestCanScanReceipt_ExhaustsMonthlyQuota(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	limit := LimitsFor(model.TierFree).ReceiptScans
	for i := 0; i < limit; i++ {
		c, err := g.CanScanReceipt(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if !c.Allowed {
			t.Fatalf("scan %d denied, limit %d", i, limit)
		}
		if err := g.IncrementUsage(ctx, "u1", MetricReceiptScans); err != nil {
			t.Fatal(err)
		}
	}

	c, err := g.CanScanReceipt(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Allowed || c.Remaining != 0 {
		t.Errorf("check after exhaustion = %+v", c)
	}
}

func TestUnlimitedTier(t *testing.T) {
	g := newTestGate(t)
	ctx := context.Background()

	// Promote the lazily created row to the family tier.
	if _, err := g.GetOrCreateUserSubscription(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	gate := g.store
	if _, err := gate.Execute(ctx,
		"UPDATE user_subscriptions SET tier = ? WHERE user_id = ?", "family", "u1"); err != nil {
		t.Fatal(err)
	}

	c, err := g.CanAddItems(ctx, "u1", 1_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Allowed || c.Remaining != Unlimited {
		t.Errorf("family item check = %+v", c)
	}

	c, err = g.CanUseAI(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Allowed || c.Remaining != Unlimited {
		t.Errorf("family AI check = %+v", c)
	}
}

func TestLimitsFor_UnknownTierFallsBackToFree(t *testing.T) {
	if LimitsFor(model.Tier("mystery")) != LimitsFor(model.TierFree) {
		t.Error("unknown tier should use free limits")
	}
}
