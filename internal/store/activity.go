package store

import (
	"context"
	"fmt"
	"math"

	"github.com/thindery/pantry-pal-api-sub000/internal/model"
)

// ResolveActivity computes the quantity delta and the amount recorded on the
// ledger for one activity against an item's current quantity.
//
// REMOVE is capped at what is actually on hand: the ledger never claims more
// was removed than existed. ADJUST records the magnitude while the quantity
// moves by the signed delta.
func ResolveActivity(typ model.ActivityType, amount, current float64) (delta, recorded float64) {
	switch typ {
	case model.ActivityAdd:
		return amount, amount
	case model.ActivityRemove:
		return -amount, math.Min(amount, current)
	case model.ActivityAdjust:
		return amount, math.Abs(amount)
	default:
		return 0, 0
	}
}

// ClampQuantity keeps quantities non-negative.
func ClampQuantity(q float64) float64 {
	return math.Max(0, q)
}

// RunVisualUsage is the shared ProcessVisualUsage implementation: a thin loop
// over LogActivity with REMOVE, matching detections to items by
// case-insensitive name. Per-detection failures are collected, never fatal.
func RunVisualUsage(ctx context.Context, s Store, userID string, detections []model.VisualDetection, source model.ActivitySource) (*model.VisualUsageResult, error) {
	res := &model.VisualUsageResult{
		Activities: []model.Activity{},
		Errors:     []string{},
	}
	for _, d := range detections {
		item, err := s.GetItemByName(ctx, userID, d.Name)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", d.Name, err))
			continue
		}
		if item == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: item not found", d.Name))
			continue
		}
		act, err := s.LogActivity(ctx, userID, item.ID, model.ActivityRemove, d.Amount, source)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", d.Name, err))
			continue
		}
		if act == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: item not found", d.Name))
			continue
		}
		res.Activities = append(res.Activities, *act)
		res.Processed++
	}
	return res, nil
}
