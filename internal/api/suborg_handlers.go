package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/po-tracker/internal/models"
	"gitlab.com/yelinaung/po-tracker/internal/reconcile"
)

func (s *Server) listSubOrgs(c *gin.Context) {
	orgs, err := s.subOrgs.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orgs)
}

func (s *Server) getSubOrg(c *gin.Context) {
	org, err := s.subOrgs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

type subOrgRequest struct {
	Name            string          `json:"name" binding:"required"`
	BudgetAllocated decimal.Decimal `json:"budget_allocated"`
}

func (s *Server) createSubOrg(c *gin.Context) {
	var req subOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.BudgetAllocated.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "budget cannot be negative"})
		return
	}

	now := time.Now()
	org := &models.SubOrganization{
		ID:              uuid.NewString(),
		Name:            req.Name,
		BudgetAllocated: req.BudgetAllocated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.subOrgs.Create(c.Request.Context(), org); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, org)
}

func (s *Server) updateSubOrg(c *gin.Context) {
	var req subOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.BudgetAllocated.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "budget cannot be negative"})
		return
	}

	org, err := s.subOrgs.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	org.Name = req.Name
	org.BudgetAllocated = req.BudgetAllocated
	org.UpdatedAt = time.Now()

	if err := s.subOrgs.Update(c.Request.Context(), org); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, org)
}

// reconcile recomputes BudgetSpent for every sub-organization from the
// transaction ledger and unlinked purchased orders. Safe to run repeatedly.
func (s *Server) reconcile(c *gin.Context) {
	ctx := c.Request.Context()
	if err := reconcile.Recalculate(ctx, s.txs, s.pos, s.subOrgs); err != nil {
		writeError(c, err)
		return
	}
	orgs, err := s.subOrgs.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sub_organizations": orgs,
		"alerts":            reconcile.BudgetAlerts(orgs),
	})
}
