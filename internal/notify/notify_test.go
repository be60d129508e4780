package notify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/po-tracker/internal/models"
)

var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) time.Time { return testNow.Add(-d) }

func approvedPO(id, name string) models.PurchaseOrder {
	at := ago(1 * time.Hour)
	return models.PurchaseOrder{
		ID:             id,
		Name:           name,
		Status:         models.StatusApproved,
		TotalAmount:    decimal.NewFromInt(100),
		ApprovedAt:     &at,
		ApprovedByName: "Alex Admin",
		UpdatedAt:      at,
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	t.Run("deterministic for the same snapshot", func(t *testing.T) {
		t.Parallel()
		in := Inputs{
			RecentPOs: []models.PurchaseOrder{approvedPO("p1", "Microscopes")},
			SubOrgs: []models.SubOrganization{
				{ID: "org-a", Name: "Biology", BudgetAllocated: decimal.NewFromInt(1000), BudgetSpent: decimal.NewFromInt(950), UpdatedAt: ago(time.Hour)},
			},
			Roles: []models.Role{models.RoleDirector, models.RolePurchaser},
			Now:   testNow,
		}
		first := Derive(in)
		second := Derive(in)
		require.Equal(t, first, second)
		require.NotEmpty(t, first)
	})

	t.Run("ids are content derived and deduplicated across roles", func(t *testing.T) {
		t.Parallel()
		// Approved POs notify directors and purchasers under the same id;
		// a user holding both roles sees the entry once.
		in := Inputs{
			RecentPOs: []models.PurchaseOrder{approvedPO("p1", "Microscopes")},
			Roles:     []models.Role{models.RoleDirector, models.RolePurchaser},
			Now:       testNow,
		}
		out := Derive(in)
		require.Len(t, out, 1)
		require.Equal(t, "po-p1-approved", out[0].ID)
	})

	t.Run("first occurrence wins on duplicate ids", func(t *testing.T) {
		t.Parallel()
		in := Inputs{
			RecentPOs: []models.PurchaseOrder{approvedPO("p1", "Microscopes")},
			Roles:     []models.Role{models.RoleDirector, models.RolePurchaser},
			Now:       testNow,
		}
		out := Derive(in)
		require.Equal(t, "PO Approved", out[0].Title, "director generator runs first")
	})

	t.Run("sorted by priority then recency", func(t *testing.T) {
		t.Parallel()
		declined := models.PurchaseOrder{
			ID: "p2", Name: "Old Declined", Status: models.StatusDeclined,
			AdminComments: "no budget", UpdatedAt: ago(3 * time.Hour),
			TotalAmount: decimal.NewFromInt(50),
		}
		purchased := models.PurchaseOrder{
			ID: "p3", Name: "Done", Status: models.StatusPurchased,
			TotalAmount: decimal.NewFromInt(10), UpdatedAt: ago(30 * time.Minute),
		}
		at := ago(30 * time.Minute)
		purchased.PurchasedAt = &at
		purchased.PurchasedByName = "Pat"

		in := Inputs{
			RecentPOs: []models.PurchaseOrder{purchased, declined, approvedPO("p1", "Scopes")},
			Roles:     []models.Role{models.RoleDirector},
			Now:       testNow,
		}
		out := Derive(in)
		require.Len(t, out, 3)
		require.Equal(t, models.PriorityHigh, out[0].Priority)
		require.Equal(t, models.PriorityMedium, out[1].Priority)
		require.Equal(t, models.PriorityLow, out[2].Priority)
	})

	t.Run("read state is resolved per user", func(t *testing.T) {
		t.Parallel()
		in := Inputs{
			RecentPOs: []models.PurchaseOrder{approvedPO("p1", "Scopes")},
			Roles:     []models.Role{models.RoleDirector},
			ReadState: map[string]bool{"po-p1-approved": true},
			Now:       testNow,
		}
		out := Derive(in)
		require.Len(t, out, 1)
		require.True(t, out[0].IsRead)
	})

	t.Run("guest role gets nothing", func(t *testing.T) {
		t.Parallel()
		in := Inputs{
			RecentPOs: []models.PurchaseOrder{approvedPO("p1", "Scopes")},
			Roles:     []models.Role{models.RoleGuest},
			Now:       testNow,
		}
		require.Empty(t, Derive(in))
	})
}

func TestDerive_Windows(t *testing.T) {
	t.Parallel()

	t.Run("status notifications expire after a day", func(t *testing.T) {
		t.Parallel()
		po := approvedPO("p1", "Scopes")
		old := ago(25 * time.Hour)
		po.ApprovedAt = &old
		in := Inputs{
			RecentPOs: []models.PurchaseOrder{po},
			Roles:     []models.Role{models.RoleDirector},
			Now:       testNow,
		}
		require.Empty(t, Derive(in))
	})

	t.Run("import notifications expire after two hours", func(t *testing.T) {
		t.Parallel()
		fresh := models.Transaction{ID: "t1", Description: "AMZN", DebitAmount: decimal.NewFromInt(20), SubOrgID: "org-a", CreatedAt: ago(time.Hour)}
		stale := models.Transaction{ID: "t2", Description: "UBER", DebitAmount: decimal.NewFromInt(30), SubOrgID: "org-a", CreatedAt: ago(3 * time.Hour)}
		in := Inputs{
			RecentTransactions: []models.Transaction{fresh, stale},
			Roles:              []models.Role{models.RoleAdmin},
			Now:                testNow,
		}
		out := Derive(in)
		require.Len(t, out, 1)
		require.Equal(t, "tx-new-t1", out[0].ID)
	})

	t.Run("unallocated reminders run on a longer window", func(t *testing.T) {
		t.Parallel()
		unalloc := models.Transaction{ID: "t1", Description: "AMZN", DebitAmount: decimal.NewFromInt(20), CreatedAt: ago(6 * time.Hour)}
		alloc := models.Transaction{ID: "t2", Description: "UBER", DebitAmount: decimal.NewFromInt(30), SubOrgID: "org-a", CreatedAt: ago(6 * time.Hour)}
		in := Inputs{
			RecentTransactions: []models.Transaction{unalloc, alloc},
			Roles:              []models.Role{models.RolePurchaser},
			Now:                testNow,
		}
		out := Derive(in)
		require.Len(t, out, 1)
		require.Equal(t, "tx-unalloc-t1", out[0].ID)
	})
}

func TestDerive_BudgetAlerts(t *testing.T) {
	t.Parallel()

	orgs := []models.SubOrganization{
		{ID: "warn", Name: "Warn", BudgetAllocated: decimal.NewFromInt(1000), BudgetSpent: decimal.NewFromInt(800), UpdatedAt: ago(time.Hour)},
		{ID: "crit", Name: "Crit", BudgetAllocated: decimal.NewFromInt(1000), BudgetSpent: decimal.NewFromInt(950), UpdatedAt: ago(time.Hour)},
		{ID: "over", Name: "Over", BudgetAllocated: decimal.NewFromInt(1000), BudgetSpent: decimal.NewFromInt(1100), UpdatedAt: ago(time.Hour)},
	}

	in := Inputs{
		SubOrgs: orgs,
		Roles:   []models.Role{models.RoleAdmin},
		Now:     testNow,
	}
	out := Derive(in)
	require.Len(t, out, 3)

	ids := make(map[string]models.Priority, len(out))
	for _, n := range out {
		ids[n.ID] = n.Priority
	}
	require.Equal(t, models.PriorityMedium, ids["budget-warn-warn"])
	require.Equal(t, models.PriorityHigh, ids["budget-critical-crit"])
	require.Equal(t, models.PriorityHigh, ids["budget-over-over"])
}
