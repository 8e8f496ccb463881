package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyhq/tally/internal/middleware"
)

// Router builds the gin engine: middleware, public auth routes, and the
// authenticated API.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
	}

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(h.jwt))
	{
		authed.POST("/auth/refresh", h.Refresh)

		authed.POST("/groups", h.CreateGroup)
		authed.GET("/groups", h.ListGroups)
		authed.GET("/groups/:id", h.GetGroup)
		authed.DELETE("/groups/:id", h.DeleteGroup)
		authed.GET("/groups/:id/members", h.ListMembers)
		authed.POST("/groups/:id/invite", h.InviteMember)
		authed.POST("/groups/:id/accept", h.AcceptInvite)
		authed.POST("/groups/:id/reject", h.RejectInvite)
		authed.GET("/groups/:id/balances", h.GroupBalances)
		authed.GET("/groups/:id/suggestions", h.SuggestSettlements)
		authed.GET("/groups/:id/transactions", h.ListGroupTransactions)

		authed.POST("/transactions", h.CreateTransaction)
		authed.DELETE("/transactions/:id", h.DeleteTransaction)
		authed.POST("/transactions/split", h.AllocateSplits)

		authed.POST("/settlements", h.PlanSettlement)
		authed.GET("/settlements/suggested-amount", h.SuggestedAmount)

		authed.POST("/accounts", h.CreateAccount)
		authed.GET("/accounts/:id", h.GetAccount)
	}

	return r
}
