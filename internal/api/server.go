// Package api exposes the purchase order tracker over HTTP. Handlers stay
// thin: auth and role gates live in middleware, domain rules live in the
// core packages, and this layer only translates between JSON and the core
// types.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/yelinaung/po-tracker/internal/config"
	"gitlab.com/yelinaung/po-tracker/internal/models"
	"gitlab.com/yelinaung/po-tracker/internal/repository"
)

// Server holds the handler dependencies.
type Server struct {
	cfg       *config.Config
	users     *repository.UserRepository
	subOrgs   *repository.SubOrgRepository
	pos       *repository.PurchaseOrderRepository
	txs       *repository.TransactionRepository
	notifRead *repository.NotificationReadsRepository
}

// New builds a server over a connection pool.
func New(cfg *config.Config, pool *pgxpool.Pool) *Server {
	return &Server{
		cfg:       cfg,
		users:     repository.NewUserRepository(pool),
		subOrgs:   repository.NewSubOrgRepository(pool),
		pos:       repository.NewPurchaseOrderRepository(pool),
		txs:       repository.NewTransactionRepository(pool),
		notifRead: repository.NewNotificationReadsRepository(pool),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.CORSAllowedOrigins) > 0 {
		corsCfg.AllowOrigins = s.cfg.CORSAllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/health", s.health)
	r.POST("/login", s.login)

	authed := r.Group("/api")
	authed.Use(s.authMiddleware(), staffOnlyWrites())
	{
		authed.GET("/pos", s.listPOs)
		authed.POST("/pos", s.createPO)
		authed.GET("/pos/export", s.exportPOs)
		authed.GET("/pos/:id", s.getPO)
		authed.PUT("/pos/:id", s.updatePO)
		authed.DELETE("/pos/:id", s.deletePO)
		authed.POST("/pos/:id/transition", s.transitionPO)
		authed.POST("/pos/:id/items/:index/check", s.checkLineItem)

		authed.GET("/suborgs", s.listSubOrgs)
		authed.POST("/suborgs", requireRole(models.RoleAdmin), s.createSubOrg)
		authed.GET("/suborgs/:id", s.getSubOrg)
		authed.PUT("/suborgs/:id", requireRole(models.RoleAdmin), s.updateSubOrg)

		authed.POST("/reconcile", requireRole(models.RoleAdmin), s.reconcile)

		authed.GET("/transactions", s.listTransactions)
		authed.PUT("/transactions/:id/allocation", requireRole(models.RoleAdmin, models.RolePurchaser), s.updateTxAllocation)
		authed.PUT("/transactions/:id/receipt", requireRole(models.RoleAdmin, models.RolePurchaser), s.updateTxReceipt)
		authed.PUT("/transactions/:id/link", requireRole(models.RoleAdmin, models.RolePurchaser), s.linkTxPO)
		authed.POST("/transactions/import", requireRole(models.RoleAdmin, models.RolePurchaser), s.importTransactions)

		authed.GET("/notifications", s.listNotifications)
		authed.POST("/notifications/:id/read", s.markNotificationRead)

		authed.GET("/reports/utilization.png", s.utilizationChart)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
