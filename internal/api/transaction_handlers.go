package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/po-tracker/internal/allocation"
	"gitlab.com/yelinaung/po-tracker/internal/ingest"
	"gitlab.com/yelinaung/po-tracker/internal/logger"
	"gitlab.com/yelinaung/po-tracker/internal/models"
)

func (s *Server) listTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		txs []models.Transaction
		err error
	)
	if v := c.Query("since"); v != "" {
		since, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC 3339"})
			return
		}
		txs, err = s.txs.ListRecent(ctx, since)
	} else {
		txs, err = s.txs.ListAll(ctx)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if c.Query("unallocated") == "true" {
		filtered := txs[:0]
		for _, tx := range txs {
			if !tx.Allocated() {
				filtered = append(filtered, tx)
			}
		}
		txs = filtered
	}
	c.JSON(http.StatusOK, txs)
}

type txAllocationRequest struct {
	SubOrgID    string                `json:"sub_org_id"`
	Allocations []models.TxAllocation `json:"allocations"`
}

// updateTxAllocation attributes a transaction to sub-organizations, either
// wholly via sub_org_id or split via allocations. Exactly one of the two
// must be set, and a split must sum to the transaction's debit amount.
func (s *Server) updateTxAllocation(c *gin.Context) {
	var req txAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if (req.SubOrgID == "") == (len(req.Allocations) == 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "set exactly one of sub_org_id or allocations"})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	tx, err := s.txs.GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(req.Allocations) > 0 {
		if err := allocation.ValidateTxSplit(req.Allocations, tx.DebitAmount); err != nil {
			writeError(c, err)
			return
		}
	}
	if err := s.txs.UpdateAllocation(ctx, id, req.SubOrgID, req.Allocations); err != nil {
		writeError(c, err)
		return
	}

	tx, err = s.txs.GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

type txReceiptRequest struct {
	ReceiptURL string `json:"receipt_url" binding:"required"`
}

func (s *Server) updateTxReceipt(c *gin.Context) {
	var req txReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receipt_url is required"})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if err := s.txs.UpdateReceipt(ctx, id, req.ReceiptURL); err != nil {
		writeError(c, err)
		return
	}

	tx, err := s.txs.GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

type txLinkRequest struct {
	POID string `json:"po_id" binding:"required"`
}

func (s *Server) linkTxPO(c *gin.Context) {
	var req txLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "po_id is required"})
		return
	}

	ctx := c.Request.Context()
	po, err := s.pos.GetByID(ctx, req.POID)
	if err != nil {
		writeError(c, err)
		return
	}

	id := c.Param("id")
	if err := s.txs.LinkPO(ctx, id, po.ID, po.Name); err != nil {
		writeError(c, err)
		return
	}

	tx, err := s.txs.GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Server) importTransactions(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	result, err := ingest.ImportTransactions(c.Request.Context(), file, s.txs)
	if err != nil {
		writeError(c, err)
		return
	}

	logger.Log.Info().
		Str("filename", header.Filename).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("Transaction import finished")
	c.JSON(http.StatusOK, result)
}
