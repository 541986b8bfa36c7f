package model

import "time"

// Tier is a subscription level. Limits per tier live in the tier package.
type Tier string

const (
	TierFree   Tier = "free"
	TierPro    Tier = "pro"
	TierFamily Tier = "family"
)

// UserSubscription persists Stripe subscription state per user. Stripe
// references stay NULL until a paid relationship exists; every user gets a
// free-tier row lazily on first access.
type UserSubscription struct {
	ID                    string     `db:"id" json:"id"`
	UserID                string     `db:"user_id" json:"user_id"`
	Tier                  Tier       `db:"tier" json:"tier"`
	StripeCustomerID      *string    `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID  *string    `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	StripePriceID         *string    `db:"stripe_price_id" json:"stripe_price_id,omitempty"`
	SubscriptionStatus    *string    `db:"subscription_status" json:"subscription_status,omitempty"`
	SubscriptionStartDate *time.Time `db:"subscription_start_date" json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time `db:"subscription_end_date" json:"subscription_end_date,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// UsageLimits holds one calendar month of usage counters for a user.
// Counters only ever increase; rollover happens because the month key changes.
type UsageLimits struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Month         string    `db:"month" json:"month"` // YYYY-MM
	ReceiptScans  int       `db:"receipt_scans" json:"receipt_scans"`
	AICalls       int       `db:"ai_calls" json:"ai_calls"`
	VoiceSessions int       `db:"voice_sessions" json:"voice_sessions"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a cached barcode lookup result.
type Product struct {
	Barcode   string    `db:"barcode" json:"barcode"`
	Name      string    `db:"name" json:"name"`
	Brand     string    `db:"brand" json:"brand"`
	Category  string    `db:"category" json:"category"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClientError is a client-reported error log entry.
type ClientError struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Message   string    `db:"message" json:"message"`
	Stack     string    `db:"stack" json:"stack"`
	URL       string    `db:"url" json:"url"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
