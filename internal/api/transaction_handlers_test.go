package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/po-tracker/internal/models"
)

func TestUpdateTransactionAllocation(t *testing.T) {
	t.Parallel()
	s := testServer(t)
	r := s.Router()

	purchaser := bearerForUser(t, &models.User{ID: "u-buy", Name: "Pat Purchaser", Role: models.RolePurchaser})

	tx := &models.Transaction{
		ID:          "tx-1",
		PostDate:    time.Now(),
		Description: "AMAZON ORDER 1123",
		DebitAmount: decimal.NewFromInt(100),
		Status:      models.TransactionStatusPosted,
	}
	require.NoError(t, s.txs.Create(context.Background(), tx))

	decode := func(body []byte) models.Transaction {
		var out models.Transaction
		require.NoError(t, json.Unmarshal(body, &out))
		return out
	}

	t.Run("split exceeding the debit is rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/transactions/tx-1/allocation", purchaser, txAllocationRequest{
			Allocations: []models.TxAllocation{
				{SubOrgID: "org-chem", SubOrgName: "Chemistry", Amount: decimal.NewFromInt(70)},
				{SubOrgID: "org-phys", SubOrgName: "Physics", Amount: decimal.NewFromInt(60)},
			},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		got, err := s.txs.GetByID(context.Background(), "tx-1")
		require.NoError(t, err)
		require.Empty(t, got.Allocations)
	})

	t.Run("split matching the debit is stored", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/transactions/tx-1/allocation", purchaser, txAllocationRequest{
			Allocations: []models.TxAllocation{
				{SubOrgID: "org-chem", SubOrgName: "Chemistry", Amount: decimal.NewFromInt(60), Percentage: 60},
				{SubOrgID: "org-phys", SubOrgName: "Physics", Amount: decimal.NewFromInt(40), Percentage: 40},
			},
		})
		require.Equal(t, http.StatusOK, w.Code)
		got := decode(w.Body.Bytes())
		require.Len(t, got.Allocations, 2)
	})

	t.Run("legacy single sub-org needs no amounts", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/transactions/tx-1/allocation", purchaser, txAllocationRequest{
			SubOrgID: "org-chem",
		})
		require.Equal(t, http.StatusOK, w.Code)
		got := decode(w.Body.Bytes())
		require.Equal(t, "org-chem", got.SubOrgID)
		require.Empty(t, got.Allocations)
	})

	t.Run("both shapes at once is rejected", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/transactions/tx-1/allocation", purchaser, txAllocationRequest{
			SubOrgID: "org-chem",
			Allocations: []models.TxAllocation{
				{SubOrgID: "org-phys", Amount: decimal.NewFromInt(100)},
			},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown transaction is 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/api/transactions/no-such-tx/allocation", purchaser, txAllocationRequest{
			SubOrgID: "org-chem",
		})
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
