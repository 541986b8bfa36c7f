// Package tier derives subscription tiers and monthly usage counters into
// advisory quota decisions.
//
// The gate is check-then-act: nothing in the storage layer consults it, and
// two concurrent callers can both pass a "room for one more" check. Callers
// accept that window; the gate only advises.
//
// It talks to storage exclusively through the Store escape hatch
// (Query/Execute/Transaction) with ?-placeholder SQL, so it works unchanged
// against either engine.
package tier

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
	"github.com/thindery/pantry-pal-api-sub000/internal/store"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/rowmap"
)

// Unlimited marks a limit (or remaining count) with no cap.
const Unlimited = -1

// Limits is the fixed quota table for one tier.
type Limits struct {
	MaxItems      int
	ReceiptScans  int
	AICalls       int
	VoiceSessions int
}

var tierLimits = map[model.Tier]Limits{
	model.TierFree:   {MaxItems: 50, ReceiptScans: 5, AICalls: 15, VoiceSessions: 10},
	model.TierPro:    {MaxItems: Unlimited, ReceiptScans: 100, AICalls: 300, VoiceSessions: 120},
	model.TierFamily: {MaxItems: Unlimited, ReceiptScans: Unlimited, AICalls: Unlimited, VoiceSessions: Unlimited},
}

// LimitsFor returns the quota table for a tier, falling back to free for
// unknown values.
func LimitsFor(t model.Tier) Limits {
	if l, ok := tierLimits[t]; ok {
		return l
	}
	return tierLimits[model.TierFree]
}

// Check is one quota decision. Remaining is Unlimited when the tier has no
// cap.
type Check struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

// Metric names a monthly usage counter.
type Metric string

const (
	MetricReceiptScans  Metric = "receipt_scans"
	MetricAICalls       Metric = "ai_calls"
	MetricVoiceSessions Metric = "voice_sessions"
)

// column whitelists the counter column for a metric.
func (m Metric) column() (string, error) {
	switch m {
	case MetricReceiptScans, MetricAICalls, MetricVoiceSessions:
		return string(m), nil
	default:
		return "", fmt.Errorf("unknown usage metric %q", m)
	}
}

// Gate evaluates quota checks for one store.
type Gate struct {
	store store.Store
	log   zerolog.Logger
}

func NewGate(s store.Store, log zerolog.Logger) *Gate {
	return &Gate{store: s, log: log}
}

// monthKey buckets usage by calendar month, rolling over implicitly.
func monthKey() string {
	return time.Now().UTC().Format("2006-01")
}

const subscriptionColumns = `id, user_id, tier, stripe_customer_id, stripe_subscription_id,
	stripe_price_id, subscription_status, subscription_start_date, subscription_end_date,
	created_at, updated_at`

// GetOrCreateUserSubscription returns the user's subscription row, creating
// a free-tier row on first access.
func (g *Gate) GetOrCreateUserSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	sub, err := g.findSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		return sub, nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := g.store.Execute(ctx, `
		INSERT INTO user_subscriptions (id, user_id, tier, created_at, updated_at)
		VALUES (?, ?, 'free', ?, ?)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.NewString(), userID, now, now); err != nil {
		return nil, fmt.Errorf("creating free subscription for user %s: %w", userID, err)
	}

	sub, err = g.findSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("subscription for user %s missing after insert", userID)
	}
	return sub, nil
}

func (g *Gate) findSubscription(ctx context.Context, userID string) (*model.UserSubscription, error) {
	rows, err := g.store.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM user_subscriptions
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching subscription for user %s: %w", userID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("fetching subscription for user %s: %w", userID, err)
		}
		return nil, nil
	}
	sub, err := rowmap.ScanSubscription(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning subscription for user %s: %w", userID, err)
	}
	return sub, nil
}

const usageColumns = "id, user_id, month, receipt_scans, ai_calls, voice_sessions, created_at, updated_at"

// GetOrCreateUsageLimits returns the user's counters for the current month,
// creating a zeroed row on first access. Find-or-insert runs inside one
// transaction.
func (g *Gate) GetOrCreateUsageLimits(ctx context.Context, userID string) (*model.UsageLimits, error) {
	month := monthKey()
	var usage *model.UsageLimits

	err := g.store.Transaction(ctx, func(tx store.Tx) error {
		u, err := findUsage(ctx, tx, userID, month)
		if err != nil {
			return err
		}
		if u != nil {
			usage = u
			return nil
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := tx.Execute(ctx, `
			INSERT INTO usage_limits (id, user_id, month, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (user_id, month) DO NOTHING
		`, uuid.NewString(), userID, month, now, now); err != nil {
			return fmt.Errorf("creating usage row for user %s: %w", userID, err)
		}

		u, err = findUsage(ctx, tx, userID, month)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("usage row for user %s missing after insert", userID)
		}
		usage = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func findUsage(ctx context.Context, tx store.Tx, userID, month string) (*model.UsageLimits, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+usageColumns+`
		FROM usage_limits
		WHERE user_id = ? AND month = ?
	`, userID, month)
	if err != nil {
		return nil, fmt.Errorf("fetching usage for user %s: %w", userID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("fetching usage for user %s: %w", userID, err)
		}
		return nil, nil
	}
	u, err := rowmap.ScanUsageLimits(rows)
	if err != nil {
		return nil, fmt.Errorf("scanning usage for user %s: %w", userID, err)
	}
	return u, nil
}

// IncrementUsage bumps one monthly counter by one. Counters never decrement;
// rollover happens when the month key changes.
func (g *Gate) IncrementUsage(ctx context.Context, userID string, metric Metric) error {
	col, err := metric.column()
	if err != nil {
		return err
	}
	if _, err := g.GetOrCreateUsageLimits(ctx, userID); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	n, err := g.store.Execute(ctx, fmt.Sprintf(`
		UPDATE usage_limits
		SET %s = %s + 1, updated_at = ?
		WHERE user_id = ? AND month = ?
	`, col, col), now, userID, monthKey())
	if err != nil {
		return fmt.Errorf("incrementing %s for user %s: %w", metric, userID, err)
	}
	if n == 0 {
		g.log.Warn().Str("user_id", userID).Str("metric", string(metric)).Msg("usage increment touched no row")
	}
	return nil
}

// CanAddItems compares the tier's item cap against the caller-supplied live
// item count.
func (g *Gate) CanAddItems(ctx context.Context, userID string, currentCount int) (Check, error) {
	sub, err := g.GetOrCreateUserSubscription(ctx, userID)
	if err != nil {
		return Check{}, err
	}
	return evaluate(currentCount, LimitsFor(sub.Tier).MaxItems), nil
}

// CanScanReceipt checks this month's receipt-scan counter against the tier
// cap.
func (g *Gate) CanScanReceipt(ctx context.Context, userID string) (Check, error) {
	return g.checkUsage(ctx, userID, MetricReceiptScans)
}

// CanUseAI checks this month's AI-call counter against the tier cap.
func (g *Gate) CanUseAI(ctx context.Context, userID string) (Check, error) {
	return g.checkUsage(ctx, userID, MetricAICalls)
}

func (g *Gate) checkUsage(ctx context.Context, userID string, metric Metric) (Check, error) {
	sub, err := g.GetOrCreateUserSubscription(ctx, userID)
	if err != nil {
		return Check{}, err
	}
	usage, err := g.GetOrCreateUsageLimits(ctx, userID)
	if err != nil {
		return Check{}, err
	}

	limits := LimitsFor(sub.Tier)
	var used, limit int
	switch metric {
	case MetricReceiptScans:
		used, limit = usage.ReceiptScans, limits.ReceiptScans
	case MetricAICalls:
		used, limit = usage.AICalls, limits.AICalls
	case MetricVoiceSessions:
		used, limit = usage.VoiceSessions, limits.VoiceSessions
	default:
		return Check{}, fmt.Errorf("unknown usage metric %q", metric)
	}
	return evaluate(used, limit), nil
}

func evaluate(used, limit int) Check {
	if limit == Unlimited {
		return Check{Allowed: true, Remaining: Unlimited}
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Check{Allowed: used < limit, Remaining: remaining}
}
