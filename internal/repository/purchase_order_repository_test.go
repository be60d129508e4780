package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/database"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

func newStoredPO(t *testing.T, repo *PurchaseOrderRepository, id string, orgs []models.OrgAllocation) *models.PurchaseOrder {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	po := &models.PurchaseOrder{
		ID:          id,
		Name:        "Order " + id,
		CreatorID:   "u-creator",
		CreatorName: "Dana",
		Status:      models.StatusDraft,
		LineItems: []models.LineItem{
			{Vendor: "SciCo", ItemName: "Beaker", SKU: "B-1", Quantity: 4, UnitPrice: decimal.NewFromFloat(12.50)},
			{Vendor: "SciCo", ItemName: "Flask", Quantity: 2, UnitPrice: decimal.NewFromFloat(25.00)},
		},
		Organizations: orgs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	po.TotalAmount = po.ComputeTotal()
	require.NoError(t, repo.Create(context.Background(), po))
	return po
}

func TestPurchaseOrderRepository(t *testing.T) {
	t.Parallel()
	repo := NewPurchaseOrderRepository(database.TestTx(t))
	ctx := context.Background()

	multiOrgs := []models.OrgAllocation{
		{SubOrgID: "org-a", SubOrgName: "Chemistry", Amount: decimal.NewFromInt(60), Percentage: 60},
		{SubOrgID: "org-b", SubOrgName: "Physics", Amount: decimal.NewFromInt(40), Percentage: 40},
	}
	singleOrgs := []models.OrgAllocation{
		{SubOrgID: "org-a", SubOrgName: "Chemistry", Amount: decimal.NewFromInt(100), Percentage: 100},
	}

	t.Run("round trips children", func(t *testing.T) {
		po := newStoredPO(t, repo, "po-multi", multiOrgs)
		got, err := repo.GetByID(ctx, po.ID)
		require.NoError(t, err)
		require.Len(t, got.LineItems, 2)
		require.Equal(t, "Beaker", got.LineItems[0].ItemName)
		require.Equal(t, "12.50", got.LineItems[0].UnitPrice.StringFixed(2))
		require.Len(t, got.Organizations, 2)
		require.Equal(t, "org-b", got.Organizations[1].SubOrgID)
		require.Empty(t, got.SubOrgID, "multi-org order has no legacy mirror")
	})

	t.Run("single-entry allocation mirrors legacy fields", func(t *testing.T) {
		po := newStoredPO(t, repo, "po-single", singleOrgs)
		got, err := repo.GetByID(ctx, po.ID)
		require.NoError(t, err)
		require.Equal(t, "org-a", got.SubOrgID)
		require.Equal(t, "Chemistry", got.SubOrgName)
	})

	t.Run("update replaces children", func(t *testing.T) {
		po := newStoredPO(t, repo, "po-edit", singleOrgs)
		po.Status = models.StatusPendingApproval
		po.LineItems = po.LineItems[:1]
		po.Organizations = multiOrgs
		po.UpdatedAt = time.Now().UTC()
		require.NoError(t, repo.Update(ctx, po))

		got, err := repo.GetByID(ctx, po.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusPendingApproval, got.Status)
		require.Len(t, got.LineItems, 1)
		require.Len(t, got.Organizations, 2)
	})

	t.Run("list by status", func(t *testing.T) {
		newStoredPO(t, repo, "po-status", singleOrgs)
		pos, err := repo.ListByStatus(ctx, models.StatusDraft)
		require.NoError(t, err)
		ids := make([]string, 0, len(pos))
		for _, po := range pos {
			ids = append(ids, po.ID)
		}
		require.Contains(t, ids, "po-status")
		require.NotContains(t, ids, "po-edit")
	})

	t.Run("delete cascades to children", func(t *testing.T) {
		po := newStoredPO(t, repo, "po-del", multiOrgs)
		require.NoError(t, repo.Delete(ctx, po.ID))
		_, err := repo.GetByID(ctx, po.ID)
		require.ErrorIs(t, err, apperr.ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, po.ID), apperr.ErrNotFound)
	})

	t.Run("approved timestamps survive", func(t *testing.T) {
		po := newStoredPO(t, repo, "po-appr", singleOrgs)
		at := time.Now().UTC().Truncate(time.Microsecond)
		po.Status = models.StatusApproved
		po.ApprovedAt = &at
		po.ApprovedByID = "u-admin"
		po.ApprovedByName = "Alex"
		require.NoError(t, repo.Update(ctx, po))

		got, err := repo.GetByID(ctx, po.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ApprovedAt)
		require.True(t, got.ApprovedAt.Equal(at))
		require.Equal(t, "Alex", got.ApprovedByName)
	})
}
