package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
)

type createGroupRequest struct {
	Name   string `json:"name" binding:"required"`
	TripID string `json:"trip_id"`
}

type groupResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by"`
	TripID    string `json:"trip_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		TripID:    g.TripID,
		CreatedAt: g.CreatedAt,
	}
}

// CreateGroup creates a group owned by the authenticated user.
func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), req.Name, middleware.GetUserID(c), req.TripID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGroupResponse(group))
}

// ListGroups lists the authenticated user's groups.
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListGroups(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	c.JSON(http.StatusOK, gin.H{"groups": out})
}

// GetGroup retrieves one group.
func (h *Handler) GetGroup(c *gin.Context) {
	group, err := h.groups.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupResponse(group))
}

// DeleteGroup deletes a group with full financial reversal. Admin only.
func (h *Handler) DeleteGroup(c *gin.Context) {
	err := h.groups.DeleteGroup(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type memberResponse struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// ListMembers lists a group's member rows.
func (h *Handler) ListMembers(c *gin.Context) {
	members, err := h.groups.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			UserID:    m.UserID,
			Role:      string(m.Role),
			Status:    string(m.Status),
			CreatedAt: m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

type inviteRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// InviteMember invites a user into the group.
func (h *Handler) InviteMember(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.groups.InviteMember(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AcceptInvite transitions the authenticated user's membership to joined.
func (h *Handler) AcceptInvite(c *gin.Context) {
	if err := h.groups.AcceptInvite(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RejectInvite transitions the authenticated user's membership to rejected.
func (h *Handler) RejectInvite(c *gin.Context) {
	if err := h.groups.RejectInvite(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type memberBalanceResponse struct {
	UserID       string          `json:"user_id"`
	DisplayName  string          `json:"display_name"`
	Paid         decimal.Decimal `json:"paid"`
	Share        decimal.Decimal `json:"share"`
	NetBalance   decimal.Decimal `json:"net_balance"`
	Bilateral    decimal.Decimal `json:"bilateral_to_viewer"`
	Status       string          `json:"status"`
	MemberStatus string          `json:"member_status"`
}

// GroupBalances returns the derived balance report relative to the
// authenticated viewer.
func (h *Handler) GroupBalances(c *gin.Context) {
	balances, err := h.ledger.Balances(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]memberBalanceResponse, 0, len(balances.Members))
	for _, m := range balances.Members {
		out = append(out, memberBalanceResponse{
			UserID:       m.UserID,
			DisplayName:  m.DisplayName,
			Paid:         m.Paid,
			Share:        m.Share,
			NetBalance:   m.Net,
			Bilateral:    m.Bilateral,
			Status:       string(m.Status),
			MemberStatus: string(m.MemberStatus),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"members":     out,
		"total_spend": balances.TotalSpend,
	})
}

// SuggestSettlements returns a minimal set of payments that would settle the
// group.
func (h *Handler) SuggestSettlements(c *gin.Context) {
	edges, err := h.ledger.SuggestSettlements(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	type edgeResponse struct {
		From   string          `json:"from"`
		To     string          `json:"to"`
		Amount decimal.Decimal `json:"amount"`
	}
	out := make([]edgeResponse, 0, len(edges))
	for _, e := range edges {
		out = append(out, edgeResponse{From: e.From, To: e.To, Amount: e.Amount})
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}
