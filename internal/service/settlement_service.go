package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// Payment is one payee's portion of a settlement.
type Payment struct {
	PayeeID string
	Amount  decimal.Decimal
}

// SettlementService converts a settlement intent into a ledger transaction
// plus splits that offset existing bilateral debt.
type SettlementService struct {
	store  storage.Store
	ledger *LedgerService
	locks  *LockSet
}

// NewSettlementService creates a SettlementService. It reads balances through
// the ledger service so suggestions share the exact aggregation semantics of
// the balance endpoint.
func NewSettlementService(store storage.Store, ledger *LedgerService, locks *LockSet) *SettlementService {
	return &SettlementService{store: store, ledger: ledger, locks: locks}
}

// PlanSettlement records a settlement: one expense transaction in the
// reserved settlement category, paid by payerID from accountID, with one
// settled split per payment. Transaction, splits, and the account debit are
// written as a single failure unit; no partial combination can persist.
//
// Partial settlement is legal: amounts below the outstanding bilateral debt
// simply leave residual debt behind. Returns the new transaction ID.
func (s *SettlementService) PlanSettlement(ctx context.Context, groupID, payerID, accountID string, payments []Payment, date int64) (string, error) {
	if len(payments) == 0 {
		return "", fmt.Errorf("%w: at least one payment required", ErrValidation)
	}
	if accountID == "" {
		return "", fmt.Errorf("%w: account required", ErrValidation)
	}
	total := decimal.Zero
	for _, p := range payments {
		if !p.Amount.IsPositive() {
			return "", fmt.Errorf("%w: payment to %s must be positive", ErrValidation, p.PayeeID)
		}
		if p.PayeeID == payerID {
			return "", fmt.Errorf("%w: cannot settle with yourself", ErrValidation)
		}
		total = total.Add(p.Amount)
	}

	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return "", err
	}
	member, err := s.store.GetMember(ctx, groupID, payerID)
	if err != nil {
		return "", err
	}
	if member.Status != models.MemberJoined {
		return "", fmt.Errorf("%w: payer %s has not joined group %s", ErrValidation, payerID, groupID)
	}
	for _, p := range payments {
		payee, err := s.store.GetMember(ctx, groupID, p.PayeeID)
		if err != nil {
			return "", err
		}
		// A rejected payee is excluded from balance reports; a settled
		// split toward one would break the zero-sum invariant.
		if payee.Status != models.MemberJoined {
			return "", fmt.Errorf("%w: payee %s has not joined group %s", ErrValidation, p.PayeeID, groupID)
		}
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	txn := &models.Transaction{
		GroupID:    groupID,
		UserID:     payerID,
		Amount:     total,
		Type:       models.TypeExpense,
		CategoryID: models.SettlementCategoryID,
		AccountID:  accountID,
		Date:       date,
	}
	splits := make([]*models.Split, 0, len(payments))
	for _, p := range payments {
		splits = append(splits, &models.Split{
			UserID: p.PayeeID,
			Amount: p.Amount,
			Status: models.SplitSettled,
		})
	}

	// The settlement debits the payer's account like any other expense.
	// Transaction, splits, and account delta are one failure unit.
	delta := &storage.AccountDelta{AccountID: accountID, Delta: total.Neg()}
	if err := s.store.CreateTransactionWithSplits(ctx, txn, splits, delta); err != nil {
		return "", err
	}

	slog.Info("settlement recorded",
		"transaction_id", txn.ID,
		"group_id", groupID,
		"payer_id", payerID,
		"payees", len(payments),
		"total", total,
	)
	return txn.ID, nil
}

// SuggestedAmount returns the UX default for settling with one payee: exactly
// what the payer currently owes them, floored at zero. A full settlement at
// this amount zeroes the bilateral balance; callers may override with any
// positive amount.
func (s *SettlementService) SuggestedAmount(ctx context.Context, groupID, payerID, payeeID string) (decimal.Decimal, error) {
	balances, err := s.ledger.Balances(ctx, groupID, payerID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, m := range balances.Members {
		if m.UserID == payeeID {
			// Bilateral < 0 means the viewer (payer) owes the payee.
			if m.Bilateral.IsNegative() {
				return m.Bilateral.Neg(), nil
			}
			return decimal.Zero, nil
		}
	}
	return decimal.Zero, fmt.Errorf("member %s in group %s: %w", payeeID, groupID, storage.ErrNotFound)
}
