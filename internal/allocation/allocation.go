// Package allocation computes how a purchase order's total is distributed
// across sub-organization budgets. Internally an allocation is always a
// list; the legacy single-org shape is one entry at 100% and is translated
// at the storage and display boundaries.
package allocation

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// Target names one sub-organization receiving part of the total.
type Target struct {
	SubOrgID   string
	SubOrgName string
}

var hundred = decimal.NewFromInt(100)

// Split distributes total equally across the targets. Amounts are rounded
// to cents and the last entry absorbs the rounding remainder, so the entry
// amounts always sum exactly to total.
func Split(total decimal.Decimal, targets []Target) ([]models.OrgAllocation, error) {
	if len(targets) == 0 {
		return nil, apperr.NewValidationError("at least one sub-organization is required")
	}

	n := decimal.NewFromInt(int64(len(targets)))
	share := total.Div(n).Round(2)

	out := make([]models.OrgAllocation, len(targets))
	running := decimal.Zero
	for i, t := range targets {
		amount := share
		if i == len(targets)-1 {
			amount = total.Sub(running)
		}
		running = running.Add(amount)
		out[i] = models.OrgAllocation{
			SubOrgID:   t.SubOrgID,
			SubOrgName: t.SubOrgName,
			Amount:     amount,
			Percentage: percentage(amount, total),
		}
	}
	return out, nil
}

// SplitByPercentage distributes total across the targets by the given
// percentages, which must sum to 100 within 0.01. Rounded amounts again sum
// exactly to total, the last entry absorbing the remainder.
func SplitByPercentage(total decimal.Decimal, targets []Target, percentages []float64) ([]models.OrgAllocation, error) {
	if len(targets) == 0 {
		return nil, apperr.NewValidationError("at least one sub-organization is required")
	}
	if len(targets) != len(percentages) {
		return nil, apperr.NewValidationError("got %d sub-organizations but %d percentages",
			len(targets), len(percentages))
	}

	pctSum := decimal.Zero
	for _, p := range percentages {
		if p < 0 {
			return nil, apperr.NewValidationError("percentage cannot be negative")
		}
		pctSum = pctSum.Add(decimal.NewFromFloat(p))
	}
	if !pctSum.Sub(hundred).Abs().LessThanOrEqual(models.AmountEpsilon) {
		return nil, apperr.NewValidationError("percentages sum to %s, want 100", pctSum.String())
	}

	out := make([]models.OrgAllocation, len(targets))
	running := decimal.Zero
	for i, t := range targets {
		amount := total.Mul(decimal.NewFromFloat(percentages[i])).Div(hundred).Round(2)
		if i == len(targets)-1 {
			amount = total.Sub(running)
		}
		running = running.Add(amount)
		out[i] = models.OrgAllocation{
			SubOrgID:   t.SubOrgID,
			SubOrgName: t.SubOrgName,
			Amount:     amount,
			Percentage: percentage(amount, total),
		}
	}
	return out, nil
}

// Normalize returns the order's allocation as a list regardless of which
// shape it was stored in. Legacy single-org orders become one entry at
// 100% of the total.
func Normalize(po *models.PurchaseOrder) []models.OrgAllocation {
	if len(po.Organizations) > 0 {
		return append([]models.OrgAllocation(nil), po.Organizations...)
	}
	if po.SubOrgID == "" {
		return nil
	}
	return []models.OrgAllocation{{
		SubOrgID:   po.SubOrgID,
		SubOrgName: po.SubOrgName,
		Amount:     po.TotalAmount,
		Percentage: 100,
	}}
}

// NormalizeEntries recomputes each entry's percentage from its amount and
// drops zero-entry noise; the caller still owns amount correctness.
func NormalizeEntries(entries []models.OrgAllocation) []models.OrgAllocation {
	out := append([]models.OrgAllocation(nil), entries...)
	total := decimal.Zero
	for _, e := range out {
		total = total.Add(e.Amount)
	}
	for i := range out {
		out[i].Percentage = percentage(out[i].Amount, total)
	}
	return out
}

// Validate checks that the entries sum to total within the rounding
// epsilon and that every entry names a sub-organization.
func Validate(entries []models.OrgAllocation, total decimal.Decimal) error {
	if len(entries) == 0 {
		return apperr.NewValidationError("at least one sub-organization allocation is required")
	}
	sum := decimal.Zero
	for i, e := range entries {
		if e.SubOrgID == "" {
			return apperr.NewValidationError("allocation entry %d has no sub-organization", i+1)
		}
		if e.Amount.IsNegative() {
			return apperr.NewValidationError("allocation entry %d is negative", i+1)
		}
		sum = sum.Add(e.Amount)
	}
	if !sum.Sub(total).Abs().LessThanOrEqual(models.AmountEpsilon) {
		return apperr.NewValidationError("allocation sums to %s, want %s",
			sum.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

// ValidateTxSplit checks a transaction's split allocation against its debit
// amount under the same rules Validate applies to a purchase order: every
// entry names a sub-organization, no entry is negative, and the amounts sum
// to the debit within the rounding epsilon.
func ValidateTxSplit(entries []models.TxAllocation, debit decimal.Decimal) error {
	if len(entries) == 0 {
		return apperr.NewValidationError("at least one allocation entry is required")
	}
	sum := decimal.Zero
	for i, e := range entries {
		if e.SubOrgID == "" {
			return apperr.NewValidationError("allocation entry %d has no sub-organization", i+1)
		}
		if e.Amount.IsNegative() {
			return apperr.NewValidationError("allocation entry %d is negative", i+1)
		}
		sum = sum.Add(e.Amount)
	}
	if !sum.Sub(debit).Abs().LessThanOrEqual(models.AmountEpsilon) {
		return apperr.NewValidationError("allocation sums to %s, want %s",
			sum.StringFixed(2), debit.StringFixed(2))
	}
	return nil
}

func percentage(amount, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	f, _ := amount.Mul(hundred).Div(total).Round(2).Float64()
	return f
}
