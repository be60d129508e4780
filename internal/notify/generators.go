package notify

import (
	"fmt"
	"time"

	"gitlab.com/yelinaung/po-tracker/internal/models"
	"gitlab.com/yelinaung/po-tracker/internal/reconcile"
)

// Recency windows. Ids are content-derived rather than event-derived, so
// expiry is handled by the window alone: once an event ages out it simply
// stops being generated.
const (
	poStatusWindow    = 24 * time.Hour
	txImportWindow    = 2 * time.Hour
	txUnallocedWindow = 12 * time.Hour
)

func poID(po *models.PurchaseOrder, status models.Status) string {
	return fmt.Sprintf("po-%s-%s", po.ID, status)
}

func poURL(po *models.PurchaseOrder) string {
	return "/purchase-orders/" + po.ID
}

// directorNotifications surfaces recent status movement and budget health
// to directors.
func directorNotifications(in Inputs) []models.Notification {
	var out []models.Notification
	roles := []models.Role{models.RoleDirector}

	for i := range in.RecentPOs {
		po := &in.RecentPOs[i]
		switch po.Status {
		case models.StatusApproved:
			if po.ApprovedAt == nil || in.Now.Sub(*po.ApprovedAt) > poStatusWindow {
				continue
			}
			out = append(out, models.Notification{
				ID:        poID(po, models.StatusApproved),
				Type:      models.NotificationPOStatus,
				Title:     "PO Approved",
				Message:   fmt.Sprintf("%q (%s) was approved by %s", po.Name, po.TotalAmount.StringFixed(2), po.ApprovedByName),
				Timestamp: *po.ApprovedAt,
				Priority:  models.PriorityMedium,
				ActionURL: poURL(po),
				Roles:     roles,
			})
		case models.StatusDeclined:
			if in.Now.Sub(po.UpdatedAt) > poStatusWindow {
				continue
			}
			out = append(out, models.Notification{
				ID:        poID(po, models.StatusDeclined),
				Type:      models.NotificationPOStatus,
				Title:     "PO Declined",
				Message:   fmt.Sprintf("%q was declined: %s", po.Name, po.AdminComments),
				Timestamp: po.UpdatedAt,
				Priority:  models.PriorityHigh,
				ActionURL: poURL(po),
				Roles:     roles,
			})
		case models.StatusPurchased:
			if po.PurchasedAt == nil || in.Now.Sub(*po.PurchasedAt) > poStatusWindow {
				continue
			}
			out = append(out, models.Notification{
				ID:        poID(po, models.StatusPurchased),
				Type:      models.NotificationPOStatus,
				Title:     "PO Purchased",
				Message:   fmt.Sprintf("%q (%s) was purchased by %s", po.Name, po.TotalAmount.StringFixed(2), po.PurchasedByName),
				Timestamp: *po.PurchasedAt,
				Priority:  models.PriorityLow,
				ActionURL: poURL(po),
				Roles:     roles,
			})
		}
	}

	out = append(out, budgetNotifications(in, roles)...)
	return out
}

// adminNotifications surfaces work waiting on an admin: approvals, budget
// health and fresh import activity.
func adminNotifications(in Inputs) []models.Notification {
	var out []models.Notification
	roles := []models.Role{models.RoleAdmin}

	for i := range in.RecentPOs {
		po := &in.RecentPOs[i]
		if po.Status != models.StatusPendingApproval || in.Now.Sub(po.UpdatedAt) > poStatusWindow {
			continue
		}
		out = append(out, models.Notification{
			ID:        poID(po, models.StatusPendingApproval),
			Type:      models.NotificationPOStatus,
			Title:     "Approval Needed",
			Message:   fmt.Sprintf("%q (%s) from %s is waiting for approval", po.Name, po.TotalAmount.StringFixed(2), po.CreatorName),
			Timestamp: po.UpdatedAt,
			Priority:  models.PriorityHigh,
			ActionURL: poURL(po),
			Roles:     roles,
		})
	}

	out = append(out, budgetNotifications(in, roles)...)

	for i := range in.RecentTransactions {
		tx := &in.RecentTransactions[i]
		if in.Now.Sub(tx.CreatedAt) > txImportWindow {
			continue
		}
		out = append(out, models.Notification{
			ID:        "tx-new-" + tx.ID,
			Type:      models.NotificationTransaction,
			Title:     "Transaction Imported",
			Message:   fmt.Sprintf("%s for %s", tx.Description, tx.DebitAmount.StringFixed(2)),
			Timestamp: tx.CreatedAt,
			Priority:  models.PriorityLow,
			ActionURL: "/transactions/" + tx.ID,
			Roles:     roles,
		})
	}

	return out
}

// purchaserNotifications surfaces approved orders awaiting purchase and
// transactions still missing an allocation.
func purchaserNotifications(in Inputs) []models.Notification {
	var out []models.Notification
	roles := []models.Role{models.RolePurchaser}

	for i := range in.RecentPOs {
		po := &in.RecentPOs[i]
		if po.Status != models.StatusApproved || po.ApprovedAt == nil || in.Now.Sub(*po.ApprovedAt) > poStatusWindow {
			continue
		}
		out = append(out, models.Notification{
			ID:        poID(po, models.StatusApproved),
			Type:      models.NotificationPOStatus,
			Title:     "Ready to Purchase",
			Message:   fmt.Sprintf("%q (%s) is approved and waiting to be purchased", po.Name, po.TotalAmount.StringFixed(2)),
			Timestamp: *po.ApprovedAt,
			Priority:  models.PriorityHigh,
			ActionURL: poURL(po),
			Roles:     roles,
		})
	}

	for i := range in.RecentTransactions {
		tx := &in.RecentTransactions[i]
		if tx.Allocated() || in.Now.Sub(tx.CreatedAt) > txUnallocedWindow {
			continue
		}
		out = append(out, models.Notification{
			ID:        "tx-unalloc-" + tx.ID,
			Type:      models.NotificationTransaction,
			Title:     "Transaction Needs Allocation",
			Message:   fmt.Sprintf("%s for %s has no sub-organization", tx.Description, tx.DebitAmount.StringFixed(2)),
			Timestamp: tx.CreatedAt,
			Priority:  models.PriorityMedium,
			ActionURL: "/transactions/" + tx.ID,
			Roles:     roles,
		})
	}

	return out
}

// budgetNotifications maps reconcile alerts into notifications for the
// given role. Timestamps use the org's updated_at (the last recalculation
// write) so repeated derivations stay byte-identical.
func budgetNotifications(in Inputs, roles []models.Role) []models.Notification {
	var out []models.Notification
	for _, a := range reconcile.BudgetAlerts(in.SubOrgs) {
		ts := orgUpdatedAt(in, a.OrgID)
		switch a.Tier {
		case reconcile.TierExceeded:
			out = append(out, models.Notification{
				ID:        "budget-over-" + a.OrgID,
				Type:      models.NotificationBudgetAlert,
				Title:     "Budget Exceeded",
				Message:   fmt.Sprintf("%s is %s over budget (%.1f%% used)", a.OrgName, a.Over.StringFixed(2), a.Utilization),
				Timestamp: ts,
				Priority:  models.PriorityHigh,
				ActionURL: "/budgets",
				Roles:     roles,
			})
		case reconcile.TierCritical:
			out = append(out, models.Notification{
				ID:        "budget-critical-" + a.OrgID,
				Type:      models.NotificationBudgetAlert,
				Title:     "Budget Critical",
				Message:   fmt.Sprintf("%s has used %.1f%% of its budget", a.OrgName, a.Utilization),
				Timestamp: ts,
				Priority:  models.PriorityHigh,
				ActionURL: "/budgets",
				Roles:     roles,
			})
		case reconcile.TierWarning:
			out = append(out, models.Notification{
				ID:        "budget-warn-" + a.OrgID,
				Type:      models.NotificationBudgetAlert,
				Title:     "Budget Warning",
				Message:   fmt.Sprintf("%s has used %.1f%% of its budget", a.OrgName, a.Utilization),
				Timestamp: ts,
				Priority:  models.PriorityMedium,
				ActionURL: "/budgets",
				Roles:     roles,
			})
		}
	}
	return out
}

func orgUpdatedAt(in Inputs, orgID string) time.Time {
	for i := range in.SubOrgs {
		if in.SubOrgs[i].ID == orgID {
			return in.SubOrgs[i].UpdatedAt
		}
	}
	return in.Now
}
