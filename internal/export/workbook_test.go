package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gitlab.com/yelinaung/po-tracker/internal/models"
)

func samplePOs() []models.PurchaseOrder {
	created := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	single := models.PurchaseOrder{
		ID:          "po-1",
		Name:        "Lab Supplies",
		Status:      models.StatusApproved,
		CreatorName: "Dana",
		SubOrgID:    "org-a",
		SubOrgName:  "Chemistry",
		TotalAmount: decimal.NewFromInt(100),
		LineItems: []models.LineItem{
			{Vendor: "SciCo", ItemName: "Beaker", SKU: "B-100", Quantity: 4, UnitPrice: decimal.NewFromInt(25)},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	multi := models.PurchaseOrder{
		ID:          "po-2",
		Name:        "Shared Printer",
		Status:      models.StatusPurchased,
		CreatorName: "Alex",
		TotalAmount: decimal.NewFromInt(600),
		Organizations: []models.OrgAllocation{
			{SubOrgID: "org-a", SubOrgName: "Chemistry", Amount: decimal.NewFromInt(400), Percentage: 66.67},
			{SubOrgID: "org-b", SubOrgName: "Physics", Amount: decimal.NewFromInt(200), Percentage: 33.33},
		},
		LineItems: []models.LineItem{
			{Vendor: "PrintCo", ItemName: "Printer", Quantity: 1, UnitPrice: decimal.NewFromInt(600), Purchased: true},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
	return []models.PurchaseOrder{single, multi}
}

func TestGeneratePOWorkbook(t *testing.T) {
	t.Parallel()

	t.Run("writes summary line items and allocation sheets", func(t *testing.T) {
		t.Parallel()
		data, err := GeneratePOWorkbook(samplePOs())
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()

		require.ElementsMatch(t, []string{SheetSummary, SheetLineItems, SheetAllocations}, f.GetSheetList())

		rows, err := f.GetRows(SheetSummary)
		require.NoError(t, err)
		require.Len(t, rows, 3, "header plus one row per order")
		require.Equal(t, "po-1", rows[1][0])
		require.Equal(t, "Chemistry", rows[1][4])
		require.Equal(t, "100.00", rows[1][5])
		require.Equal(t, "Chemistry (67%), Physics (33%)", rows[2][4])

		items, err := f.GetRows(SheetLineItems)
		require.NoError(t, err)
		require.Len(t, items, 3)
		require.Equal(t, "Beaker", items[1][3])
		require.Equal(t, "100.00", items[1][7], "line total is quantity times unit price")

		allocs, err := f.GetRows(SheetAllocations)
		require.NoError(t, err)
		require.Len(t, allocs, 3, "only the multi-org order appears")
		require.Equal(t, "po-2", allocs[1][0])
		require.Equal(t, "400.00", allocs[1][3])
		require.Equal(t, "33.33%", allocs[2][4])
	})

	t.Run("single-org orders skip the allocation sheet", func(t *testing.T) {
		t.Parallel()
		data, err := GeneratePOWorkbook(samplePOs()[:1])
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()

		require.ElementsMatch(t, []string{SheetSummary, SheetLineItems}, f.GetSheetList())
	})

	t.Run("no orders still yields headers", func(t *testing.T) {
		t.Parallel()
		data, err := GeneratePOWorkbook(nil)
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(SheetSummary)
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})
}
