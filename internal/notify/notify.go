// Package notify derives role-filtered notification lists from current
// purchase-order, budget and transaction state. Nothing is pushed or
// persisted: the list is recomputed on demand, and per-user read state is
// resolved by deterministic, content-derived notification ids.
package notify

import (
	"sort"
	"time"

	"gitlab.com/yelinaung/po-tracker/internal/models"
)

// Inputs is the snapshot a derivation runs over. Recency windows inside
// the generators keep stale events from surfacing, so the caller only
// needs a coarse "recent" slice of POs and transactions. Now is injected
// so derivation stays deterministic under test.
type Inputs struct {
	RecentPOs          []models.PurchaseOrder
	SubOrgs            []models.SubOrganization
	RecentTransactions []models.Transaction
	Roles              []models.Role
	ReadState          map[string]bool
	Now                time.Time
}

// Derive runs the generator for every role the user holds, deduplicates by
// id (first occurrence wins), resolves read state and sorts by priority
// then recency. Given the same snapshot and clock the output is identical
// call to call.
func Derive(in Inputs) []models.Notification {
	var all []models.Notification
	for _, role := range in.Roles {
		switch role {
		case models.RoleDirector:
			all = append(all, directorNotifications(in)...)
		case models.RoleAdmin:
			all = append(all, adminNotifications(in)...)
		case models.RolePurchaser:
			all = append(all, purchaserNotifications(in)...)
		}
	}

	seen := make(map[string]bool, len(all))
	out := make([]models.Notification, 0, len(all))
	for _, n := range all {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		n.IsRead = in.ReadState[n.ID]
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi > pj
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

func priorityRank(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 3
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 1
	}
	return 0
}
