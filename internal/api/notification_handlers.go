package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/po-tracker/internal/notify"
)

// notificationLookback bounds how much history feeds a derivation. It is
// wider than any generator window so nothing recent is cut off.
const notificationLookback = 48 * time.Hour

func (s *Server) listNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessionFrom(c)
	now := time.Now()

	pos, err := s.pos.List(ctx, 0)
	if err != nil {
		writeError(c, err)
		return
	}
	orgs, err := s.subOrgs.List(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	txs, err := s.txs.ListRecent(ctx, now.Add(-notificationLookback))
	if err != nil {
		writeError(c, err)
		return
	}
	readState, err := s.notifRead.ReadState(ctx, session.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	notifications := notify.Derive(notify.Inputs{
		RecentPOs:          pos,
		SubOrgs:            orgs,
		RecentTransactions: txs,
		Roles:              session.Roles,
		ReadState:          readState,
		Now:                now,
	})
	c.JSON(http.StatusOK, notifications)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	session := sessionFrom(c)
	id := c.Param("id")
	if err := s.notifRead.MarkRead(c.Request.Context(), session.UserID, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": id})
}
