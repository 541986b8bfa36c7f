// Package rowmap converts storage rows into domain entities.
//
// Each Scan* function maps one row type and is the only place that column
// order for that type is defined. The functions are pure over a Scanner, so
// both engines share them: PostgreSQL hands back native time.Time and
// float64 values, SQLite hands back RFC 3339 TEXT and occasionally int64
// where a REAL column holds a whole number. The as* normalizers absorb that
// difference.
package rowmap

import (
	"fmt"
	"time"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
)

// Scanner is satisfied by pgx rows/row and database/sql rows/row alike.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanItem maps one pantry_items row:
// id, user_id, name, barcode, quantity, unit, category, last_updated, created_at.
func ScanItem(s Scanner) (*model.PantryItem, error) {
	var id, userID, name, barcode, qty, unit, category, lastUpdated, createdAt any
	if err := s.Scan(&id, &userID, &name, &barcode, &qty, &unit, &category, &lastUpdated, &createdAt); err != nil {
		return nil, err
	}
	item := &model.PantryItem{
		ID:      asString(id),
		UserID:  asString(userID),
		Name:    asString(name),
		Barcode: asNullString(barcode),
	}
	var err error
	if item.Quantity, err = asFloat(qty); err != nil {
		return nil, fmt.Errorf("map item quantity: %w", err)
	}
	item.Unit = asString(unit)
	item.Category = asString(category)
	if item.LastUpdated, err = asTime(lastUpdated); err != nil {
		return nil, fmt.Errorf("map item last_updated: %w", err)
	}
	if item.CreatedAt, err = asTime(createdAt); err != nil {
		return nil, fmt.Errorf("map item created_at: %w", err)
	}
	return item, nil
}

// ScanActivity maps one activities row:
// id, user_id, item_id, item_name, type, amount, timestamp, source, created_at.
func ScanActivity(s Scanner) (*model.Activity, error) {
	var id, userID, itemID, itemName, typ, amount, ts, source, createdAt any
	if err := s.Scan(&id, &userID, &itemID, &itemName, &typ, &amount, &ts, &source, &createdAt); err != nil {
		return nil, err
	}
	act := &model.Activity{
		ID:       asString(id),
		UserID:   asString(userID),
		ItemID:   asString(itemID),
		ItemName: asString(itemName),
		Type:     model.ActivityType(asString(typ)),
		Source:   model.ActivitySource(asString(source)),
	}
	var err error
	if act.Amount, err = asFloat(amount); err != nil {
		return nil, fmt.Errorf("map activity amount: %w", err)
	}
	if act.Timestamp, err = asTime(ts); err != nil {
		return nil, fmt.Errorf("map activity timestamp: %w", err)
	}
	if act.CreatedAt, err = asTime(createdAt); err != nil {
		return nil, fmt.Errorf("map activity created_at: %w", err)
	}
	return act, nil
}

// ScanSubscription maps one user_subscriptions row:
// id, user_id, tier, stripe_customer_id, stripe_subscription_id,
// stripe_price_id, subscription_status, subscription_start_date,
// subscription_end_date, created_at, updated_at.
func ScanSubscription(s Scanner) (*model.UserSubscription, error) {
	var id, userID, tier, custID, subID, priceID, status, startDate, endDate, createdAt, updatedAt any
	if err := s.Scan(&id, &userID, &tier, &custID, &subID, &priceID, &status, &startDate, &endDate, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sub := &model.UserSubscription{
		ID:                   asString(id),
		UserID:               asString(userID),
		Tier:                 model.Tier(asString(tier)),
		StripeCustomerID:     asNullString(custID),
		StripeSubscriptionID: asNullString(subID),
		StripePriceID:        asNullString(priceID),
		SubscriptionStatus:   asNullString(status),
	}
	var err error
	if sub.SubscriptionStartDate, err = asNullTime(startDate); err != nil {
		return nil, fmt.Errorf("map subscription start date: %w", err)
	}
	if sub.SubscriptionEndDate, err = asNullTime(endDate); err != nil {
		return nil, fmt.Errorf("map subscription end date: %w", err)
	}
	if sub.CreatedAt, err = asTime(createdAt); err != nil {
		return nil, fmt.Errorf("map subscription created_at: %w", err)
	}
	if sub.UpdatedAt, err = asTime(updatedAt); err != nil {
		return nil, fmt.Errorf("map subscription updated_at: %w", err)
	}
	return sub, nil
}

// ScanUsageLimits maps one usage_limits row:
// id, user_id, month, receipt_scans, ai_calls, voice_sessions, created_at, updated_at.
func ScanUsageLimits(s Scanner) (*model.UsageLimits, error) {
	var id, userID, month, scans, ai, voice, createdAt, updatedAt any
	if err := s.Scan(&id, &userID, &month, &scans, &ai, &voice, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u := &model.UsageLimits{
		ID:     asString(id),
		UserID: asString(userID),
		Month:  asString(month),
	}
	var err error
	if u.ReceiptScans, err = asInt(scans); err != nil {
		return nil, fmt.Errorf("map receipt_scans: %w", err)
	}
	if u.AICalls, err = asInt(ai); err != nil {
		return nil, fmt.Errorf("map ai_calls: %w", err)
	}
	if u.VoiceSessions, err = asInt(voice); err != nil {
		return nil, fmt.Errorf("map voice_sessions: %w", err)
	}
	if u.CreatedAt, err = asTime(createdAt); err != nil {
		return nil, fmt.Errorf("map usage created_at: %w", err)
	}
	if u.UpdatedAt, err = asTime(updatedAt); err != nil {
		return nil, fmt.Errorf("map usage updated_at: %w", err)
	}
	return u, nil
}

// ScanProduct maps one product_cache row:
// barcode, name, brand, category, image_url, created_at.
func ScanProduct(s Scanner) (*model.Product, error) {
	var barcode, name, brand, category, imageURL, createdAt any
	if err := s.Scan(&barcode, &name, &brand, &category, &imageURL, &createdAt); err != nil {
		return nil, err
	}
	p := &model.Product{
		Barcode:  asString(barcode),
		Name:     asString(name),
		Brand:    asString(brand),
		Category: asString(category),
		ImageURL: asString(imageURL),
	}
	var err error
	if p.CreatedAt, err = asTime(createdAt); err != nil {
		return nil, fmt.Errorf("map product created_at: %w", err)
	}
	return p, nil
}

// ScanClientError maps one client_errors row:
// id, user_id, message, stack, url, user_agent, created_at.
func ScanClientError(s Scanner) (*model.ClientError, error) {
	var id, userID, message, stack, url, userAgent, createdAt any
	if err := s.Scan(&id, &userID, &message, &stack, &url, &userAgent, &createdAt); err != nil {
		return nil, err
	}
	e := &model.ClientError{
		ID:        asString(id),
		UserID:    asString(userID),
		Message:   asString(message),
		Stack:     asString(stack),
		URL:       asString(url),
		UserAgent: asString(userAgent),
	}
	var err error
	if e.CreatedAt, err = asTime(createdAt); err != nil {
		return nil, fmt.Errorf("map client error created_at: %w", err)
	}
	return e, nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func asNullString(v any) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("unexpected numeric type %T", v)
	}
}

func asInt(v any) (int, error) {
	switch x := v.(type) {
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case int:
		return x, nil
	case float64:
		return int(x), nil
	default:
		return 0, fmt.Errorf("unexpected integer type %T", v)
	}
}

func asTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return parseTime(x)
	case []byte:
		return parseTime(string(x))
	default:
		return time.Time{}, fmt.Errorf("unexpected time type %T", v)
	}
}

func asNullTime(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := asTime(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// Layout SQLite drivers use when a time.Time was bound directly.
	return time.Parse("2006-01-02 15:04:05.999999999-07:00", s)
}
