package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/po-tracker/internal/report"
)

func (s *Server) utilizationChart(c *gin.Context) {
	orgs, err := s.subOrgs.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	png, err := report.GenerateUtilizationChart(orgs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
