package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/po-tracker/internal/allocation"
	"gitlab.com/yelinaung/po-tracker/internal/apperr"
	"gitlab.com/yelinaung/po-tracker/internal/export"
	"gitlab.com/yelinaung/po-tracker/internal/models"
	"gitlab.com/yelinaung/po-tracker/internal/workflow"
)

const defaultListLimit = 200

func (s *Server) listPOs(c *gin.Context) {
	limit := defaultListLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var (
		pos []models.PurchaseOrder
		err error
	)
	if status := c.Query("status"); status != "" {
		if !models.ValidStatus(models.Status(status)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", status)})
			return
		}
		pos, err = s.pos.ListByStatus(c.Request.Context(), models.Status(status))
	} else {
		pos, err = s.pos.List(c.Request.Context(), limit)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pos)
}

func (s *Server) getPO(c *gin.Context) {
	po, err := s.pos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

type poTarget struct {
	SubOrgID   string `json:"sub_org_id"`
	SubOrgName string `json:"sub_org_name"`
}

// poRequest accepts the allocation in either shape: explicit organizations
// entries with amounts, or targets the server splits the total across
// (equally, or by the optional percentages).
type poRequest struct {
	Name                    string                 `json:"name"`
	LineItems               []models.LineItem      `json:"line_items"`
	Organizations           []models.OrgAllocation `json:"organizations"`
	Targets                 []poTarget             `json:"targets"`
	Percentages             []float64              `json:"percentages"`
	SpecialRequest          string                 `json:"special_request"`
	OverBudgetJustification string                 `json:"over_budget_justification"`
	SubmitNow               bool                   `json:"submit_now"`
}

func (r poRequest) targets() []allocation.Target {
	out := make([]allocation.Target, len(r.Targets))
	for i, t := range r.Targets {
		out[i] = allocation.Target{SubOrgID: t.SubOrgID, SubOrgName: t.SubOrgName}
	}
	return out
}

func (s *Server) createPO(c *gin.Context) {
	var req poRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	po, err := workflow.Create(workflow.CreateInput{
		Name:                    req.Name,
		LineItems:               req.LineItems,
		Organizations:           req.Organizations,
		Targets:                 req.targets(),
		Percentages:             req.Percentages,
		SpecialRequest:          req.SpecialRequest,
		OverBudgetJustification: req.OverBudgetJustification,
		SubmitNow:               req.SubmitNow,
	}, sessionFrom(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	if err := s.pos.Create(c.Request.Context(), po); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

func (s *Server) updatePO(c *gin.Context) {
	var req poRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	po, err := s.pos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	updated, err := workflow.Edit(po, workflow.EditInput{
		Name:                    req.Name,
		LineItems:               req.LineItems,
		Organizations:           req.Organizations,
		Targets:                 req.targets(),
		Percentages:             req.Percentages,
		SpecialRequest:          req.SpecialRequest,
		OverBudgetJustification: req.OverBudgetJustification,
	}, sessionFrom(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	if err := s.pos.Update(c.Request.Context(), updated); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deletePO(c *gin.Context) {
	po, err := s.pos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !workflow.CanDelete(po, sessionFrom(c)) {
		writeError(c, fmt.Errorf("cannot delete purchase order %s: %w", po.ID, apperr.ErrPermissionDenied))
		return
	}
	if err := s.pos.Delete(c.Request.Context(), po.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": po.ID})
}

type transitionRequest struct {
	Action  string `json:"action" binding:"required"`
	Comment string `json:"comment"`
}

func (s *Server) transitionPO(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action is required"})
		return
	}

	po, err := s.pos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	updated, err := workflow.Transition(po, workflow.Action(req.Action), sessionFrom(c), req.Comment, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	if err := s.pos.Update(c.Request.Context(), updated); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) checkLineItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid line item index"})
		return
	}

	po, err := s.pos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	updated, err := workflow.CheckLineItem(po, index, sessionFrom(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}

	if err := s.pos.Update(c.Request.Context(), updated); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) exportPOs(c *gin.Context) {
	pos, err := s.pos.List(c.Request.Context(), 0)
	if err != nil {
		writeError(c, err)
		return
	}

	data, err := export.GeneratePOWorkbook(pos)
	if err != nil {
		writeError(c, err)
		return
	}

	filename := fmt.Sprintf("purchase-orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
