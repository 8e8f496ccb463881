package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/service"
)

type createTransactionRequest struct {
	GroupID    string          `json:"group_id"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Type       string          `json:"type" binding:"required"`
	CategoryID string          `json:"category_id"`
	TripID     string          `json:"trip_id"`
	AccountID  string          `json:"account_id" binding:"required"`
	Note       string          `json:"note"`
	Date       int64           `json:"date"`
}

type transactionResponse struct {
	ID         string          `json:"id"`
	GroupID    string          `json:"group_id,omitempty"`
	UserID     string          `json:"user_id"`
	Amount     decimal.Decimal `json:"amount"`
	Type       string          `json:"type"`
	CategoryID string          `json:"category_id,omitempty"`
	TripID     string          `json:"trip_id,omitempty"`
	AccountID  string          `json:"account_id"`
	Note       string          `json:"note,omitempty"`
	Date       int64           `json:"date"`
}

func toTransactionResponse(t *models.Transaction) transactionResponse {
	return transactionResponse{
		ID:         t.ID,
		GroupID:    t.GroupID,
		UserID:     t.UserID,
		Amount:     t.Amount,
		Type:       string(t.Type),
		CategoryID: t.CategoryID,
		TripID:     t.TripID,
		AccountID:  t.AccountID,
		Note:       t.Note,
		Date:       t.Date,
	}
}

// CreateTransaction records a transaction paid by the authenticated user.
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn := &models.Transaction{
		GroupID:    req.GroupID,
		UserID:     middleware.GetUserID(c),
		Amount:     req.Amount,
		Type:       models.TransactionType(req.Type),
		CategoryID: req.CategoryID,
		TripID:     req.TripID,
		AccountID:  req.AccountID,
		Note:       req.Note,
		Date:       req.Date,
	}
	if err := h.ledger.RecordTransaction(c.Request.Context(), txn); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResponse(txn))
}

// DeleteTransaction removes a transaction, cascading its splits and reverting
// the account balance.
func (h *Handler) DeleteTransaction(c *gin.Context) {
	if err := h.ledger.DeleteTransaction(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListGroupTransactions lists a group's transactions.
func (h *Handler) ListGroupTransactions(c *gin.Context) {
	txns, err := h.ledger.ListGroupTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

type allocateRequest struct {
	GroupID        string                     `json:"group_id" binding:"required"`
	TransactionIDs []string                   `json:"transaction_ids"`
	Method         string                     `json:"method" binding:"required"`
	MemberIDs      []string                   `json:"member_ids"`
	CustomShares   map[string]decimal.Decimal `json:"custom_shares"`
}

// AllocateSplits recomputes and persists splits for one or more transactions.
func (h *Handler) AllocateSplits(c *gin.Context) {
	var req allocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alloc, err := h.ledger.AllocateSplits(
		c.Request.Context(),
		req.GroupID,
		req.TransactionIDs,
		calculator.Method(req.Method),
		req.CustomShares,
		req.MemberIDs,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":  alloc.Total,
		"shares": alloc.Shares,
	})
}

type planSettlementRequest struct {
	GroupID   string `json:"group_id" binding:"required"`
	AccountID string `json:"account_id" binding:"required"`
	Date      int64  `json:"date"`
	Payments  []struct {
		PayeeID string          `json:"payee_id" binding:"required"`
		Amount  decimal.Decimal `json:"amount" binding:"required"`
	} `json:"payments" binding:"required"`
}

// PlanSettlement records a settlement from the authenticated payer.
func (h *Handler) PlanSettlement(c *gin.Context) {
	var req planSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payments := make([]service.Payment, 0, len(req.Payments))
	for _, p := range req.Payments {
		payments = append(payments, service.Payment{PayeeID: p.PayeeID, Amount: p.Amount})
	}

	txnID, err := h.settlements.PlanSettlement(
		c.Request.Context(),
		req.GroupID,
		middleware.GetUserID(c),
		req.AccountID,
		payments,
		req.Date,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction_id": txnID})
}

// SuggestedAmount returns the default settlement amount toward one payee:
// exactly what the authenticated payer currently owes them.
func (h *Handler) SuggestedAmount(c *gin.Context) {
	groupID := c.Query("group_id")
	payeeID := c.Query("payee_id")
	if groupID == "" || payeeID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "group_id and payee_id required"})
		return
	}

	amount, err := h.settlements.SuggestedAmount(c.Request.Context(), groupID, middleware.GetUserID(c), payeeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

type createAccountRequest struct {
	Name    string          `json:"name" binding:"required"`
	Balance decimal.Decimal `json:"balance"`
}

// CreateAccount creates a money account for the authenticated user.
func (h *Handler) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := &models.Account{
		UserID:  middleware.GetUserID(c),
		Name:    req.Name,
		Balance: req.Balance,
	}
	if err := h.store.CreateAccount(c.Request.Context(), account); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      account.ID,
		"name":    account.Name,
		"balance": account.Balance,
	})
}

// GetAccount retrieves an account with its current balance.
func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.store.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      account.ID,
		"user_id": account.UserID,
		"name":    account.Name,
		"balance": account.Balance,
	})
}
