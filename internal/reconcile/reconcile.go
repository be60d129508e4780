// Package reconcile derives each sub-organization's spent-to-date figure
// from transactions and purchased purchase orders, and classifies budget
// utilization into alert tiers.
//
// Transactions are the authoritative spend source: a purchased order
// contributes only while no transaction links back to it, so the same
// real-world expenditure is never counted twice. Recalculation is an
// explicit, idempotent batch operation; budget_spent is eventually
// consistent between runs.
package reconcile

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// SpentByOrg computes per-sub-organization spend from a snapshot.
// Transaction amounts (legacy single-org or split allocations) always
// count; purchased-PO allocations count only when no transaction links the
// order.
func SpentByOrg(transactions []models.Transaction, purchasedPOs []models.PurchaseOrder) map[string]decimal.Decimal {
	spent := make(map[string]decimal.Decimal)
	add := func(orgID string, amount decimal.Decimal) {
		if orgID == "" {
			return
		}
		spent[orgID] = spent[orgID].Add(amount)
	}

	linkedPOs := make(map[string]bool)
	for _, tx := range transactions {
		if tx.LinkedPOID != "" {
			linkedPOs[tx.LinkedPOID] = true
		}
		if len(tx.Allocations) > 0 {
			for _, a := range tx.Allocations {
				add(a.SubOrgID, a.Amount)
			}
			continue
		}
		add(tx.SubOrgID, tx.DebitAmount)
	}

	for _, po := range purchasedPOs {
		if po.Status != models.StatusPurchased || linkedPOs[po.ID] {
			continue
		}
		if len(po.Organizations) > 0 {
			for _, a := range po.Organizations {
				add(a.SubOrgID, a.Amount)
			}
			continue
		}
		add(po.SubOrgID, po.TotalAmount)
	}

	return spent
}

// TransactionSource lists every stored transaction.
type TransactionSource interface {
	ListAll(ctx context.Context) ([]models.Transaction, error)
}

// PurchaseOrderSource lists purchase orders in a given status.
type PurchaseOrderSource interface {
	ListByStatus(ctx context.Context, status models.Status) ([]models.PurchaseOrder, error)
}

// SubOrgStore reads and rewrites sub-organization budgets.
type SubOrgStore interface {
	List(ctx context.Context) ([]models.SubOrganization, error)
	UpdateBudgetSpent(ctx context.Context, id string, spent decimal.Decimal) error
}

// Recalculate rewrites budget_spent for every sub-organization from the
// current transaction and purchased-PO state. Safe to re-run: a partial
// failure is resolved by running it again.
func Recalculate(ctx context.Context, txs TransactionSource, pos PurchaseOrderSource, orgs SubOrgStore) error {
	transactions, err := txs.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	purchased, err := pos.ListByStatus(ctx, models.StatusPurchased)
	if err != nil {
		return fmt.Errorf("failed to list purchased orders: %w", err)
	}
	all, err := orgs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sub-organizations: %w", err)
	}

	spent := SpentByOrg(transactions, purchased)
	for _, org := range all {
		if err := orgs.UpdateBudgetSpent(ctx, org.ID, spent[org.ID]); err != nil {
			return fmt.Errorf("failed to update spend for %s: %w", org.ID, err)
		}
	}
	return nil
}

// Utilization returns spent/allocated as a percentage, 0 when nothing is
// allocated.
func Utilization(spent, allocated decimal.Decimal) float64 {
	if allocated.IsZero() {
		return 0
	}
	f, _ := spent.Div(allocated).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return f
}

// Tier classifies budget utilization.
type Tier string

// Alert tiers under the adopted policy: warning at 75%, critical at 90%,
// exceeded above 100%.
const (
	TierOK       Tier = "ok"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
	TierExceeded Tier = "exceeded"
)

// Thresholds for the adopted alert policy, in percent.
const (
	WarningThreshold  = 75.0
	CriticalThreshold = 90.0
	ExceededThreshold = 100.0
)

// Classify maps a utilization percentage onto an alert tier.
func Classify(utilization float64) Tier {
	switch {
	case utilization > ExceededThreshold:
		return TierExceeded
	case utilization >= CriticalThreshold:
		return TierCritical
	case utilization >= WarningThreshold:
		return TierWarning
	default:
		return TierOK
	}
}

// Alert describes one sub-organization whose utilization crossed a
// threshold.
type Alert struct {
	OrgID       string          `json:"org_id"`
	OrgName     string          `json:"org_name"`
	Tier        Tier            `json:"tier"`
	Utilization float64         `json:"utilization"`
	Spent       decimal.Decimal `json:"spent"`
	Allocated   decimal.Decimal `json:"allocated"`
	// Over is the amount past the ceiling; zero unless TierExceeded.
	Over decimal.Decimal `json:"over"`
}

// BudgetAlerts evaluates every sub-organization and returns an alert for
// each one at warning tier or above, in input order.
func BudgetAlerts(orgs []models.SubOrganization) []Alert {
	var alerts []Alert
	for _, org := range orgs {
		u := Utilization(org.BudgetSpent, org.BudgetAllocated)
		tier := Classify(u)
		if tier == TierOK {
			continue
		}
		a := Alert{
			OrgID:       org.ID,
			OrgName:     org.Name,
			Tier:        tier,
			Utilization: u,
			Spent:       org.BudgetSpent,
			Allocated:   org.BudgetAllocated,
			Over:        decimal.Zero,
		}
		if tier == TierExceeded {
			a.Over = org.BudgetSpent.Sub(org.BudgetAllocated)
		}
		alerts = append(alerts, a)
	}
	return alerts
}
