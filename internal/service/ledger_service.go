package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/calculator"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/storage"
)

// LedgerService orchestrates transaction recording, split allocation, and
// balance reads on top of the store. Balances are recomputed from raw rows on
// every read; nothing here caches.
type LedgerService struct {
	store storage.Store
	locks *LockSet
}

// NewLedgerService creates a LedgerService sharing the given lock set with the
// other writers.
func NewLedgerService(store storage.Store, locks *LockSet) *LedgerService {
	return &LedgerService{store: store, locks: locks}
}

// MemberBalanceView is one row of a group balance report, enriched with
// profile and membership data for display.
type MemberBalanceView struct {
	UserID       string
	DisplayName  string
	Paid         decimal.Decimal
	Share        decimal.Decimal
	Net          decimal.Decimal
	Bilateral    decimal.Decimal
	Status       calculator.BalanceStatus
	MemberStatus models.MemberStatus
}

// GroupBalances is the derived balance state of a group relative to a viewer.
type GroupBalances struct {
	Members    []MemberBalanceView
	TotalSpend decimal.Decimal
}

// BilateralOf returns the viewer-relative bilateral balance of one member,
// zero when the member is absent.
func (b *GroupBalances) BilateralOf(userID string) decimal.Decimal {
	for _, m := range b.Members {
		if m.UserID == userID {
			return m.Bilateral
		}
	}
	return decimal.Zero
}

// RecordTransaction validates and persists a transaction, adjusting the
// linked account balance (expense subtracts, income adds, transfers leave the
// single-account balance untouched here).
func (s *LedgerService) RecordTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	switch txn.Type {
	case models.TypeExpense, models.TypeIncome, models.TypeTransfer:
	default:
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, txn.Type)
	}
	if txn.AccountID == "" {
		return fmt.Errorf("%w: account required", ErrValidation)
	}
	if txn.GroupID != "" {
		if _, err := s.store.GetGroup(ctx, txn.GroupID); err != nil {
			return err
		}
		unlock := s.locks.Lock(txn.GroupID)
		defer unlock()
	}

	// The balance adjustment rides in the same SQL transaction as the
	// insert; a failure leaves neither half.
	if err := s.store.CreateTransaction(ctx, txn, creationDelta(txn)); err != nil {
		return err
	}

	slog.Info("transaction recorded",
		"transaction_id", txn.ID,
		"group_id", txn.GroupID,
		"type", txn.Type,
		"amount", txn.Amount,
	)
	return nil
}

// DeleteTransaction removes a transaction, its splits, and reverts the linked
// account balance.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if txn.GroupID != "" {
		unlock := s.locks.Lock(txn.GroupID)
		defer unlock()
	}

	// Reverse of the adjustment made on creation, applied atomically with
	// the row removal.
	var reversal *storage.AccountDelta
	if delta := creationDelta(txn); delta != nil {
		reversal = &storage.AccountDelta{AccountID: delta.AccountID, Delta: delta.Delta.Neg()}
	}
	if err := s.store.DeleteTransaction(ctx, id, reversal); err != nil {
		return err
	}

	slog.Info("transaction deleted", "transaction_id", id, "group_id", txn.GroupID)
	return nil
}

// ListGroupTransactions returns all transactions of a group, newest first.
func (s *LedgerService) ListGroupTransactions(ctx context.Context, groupID string) ([]*models.Transaction, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByGroup(ctx, groupID)
}

// AllocateSplits recomputes the splits of the given group transactions across
// members and replaces them in the store, one atomic replace per transaction,
// under the group lock.
//
// memberIDs selects who shares the cost; when empty, every joined member
// does. Allocating zero transactions is an idempotent no-op returning empty
// shares. The returned allocation reports each member's total share.
func (s *LedgerService) AllocateSplits(ctx context.Context, groupID string, transactionIDs []string, method calculator.Method, customShares map[string]decimal.Decimal, memberIDs []string) (*calculator.Allocation, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if len(transactionIDs) == 0 {
		return &calculator.Allocation{
			Shares:         map[string]decimal.Decimal{},
			PerTransaction: map[string]map[string]decimal.Decimal{},
		}, nil
	}

	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	joined := make(map[string]bool, len(members))
	for _, m := range members {
		if m.Status == models.MemberJoined {
			joined[m.UserID] = true
		}
	}
	if len(memberIDs) == 0 {
		for _, m := range members {
			if m.Status == models.MemberJoined {
				memberIDs = append(memberIDs, m.UserID)
			}
		}
	} else {
		for _, id := range memberIDs {
			if !joined[id] {
				return nil, fmt.Errorf("%w: %s is not a joined member of group %s", ErrValidation, id, groupID)
			}
		}
	}
	if len(memberIDs) == 0 {
		return nil, fmt.Errorf("%w: group has no joined members", ErrValidation)
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	calcTxns := make([]calculator.Transaction, 0, len(transactionIDs))
	for _, id := range transactionIDs {
		txn, err := s.store.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		if txn.GroupID != groupID {
			return nil, fmt.Errorf("%w: transaction %s does not belong to group %s", ErrValidation, id, groupID)
		}
		calcTxns = append(calcTxns, calculator.Transaction{ID: txn.ID, Amount: txn.Amount})
	}

	alloc, err := calculator.Allocate(calcTxns, memberIDs, method, customShares)
	if err != nil {
		if errors.Is(err, calculator.ErrAllocationMismatch) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	for txnID, parts := range alloc.PerTransaction {
		var splits []*models.Split
		for _, memberID := range memberIDs {
			part := parts[memberID]
			if part.IsZero() {
				continue
			}
			splits = append(splits, &models.Split{
				TransactionID: txnID,
				UserID:        memberID,
				Amount:        part,
			})
		}
		if err := s.store.ReplaceSplits(ctx, txnID, splits); err != nil {
			return nil, err
		}
	}

	slog.Info("splits allocated",
		"group_id", groupID,
		"transactions", len(transactionIDs),
		"members", len(memberIDs),
		"method", method,
		"total", alloc.Total,
	)
	return alloc, nil
}

// Balances recomputes the group's balance report relative to viewerID.
// Transactions without splits are excluded; a group with zero transactions
// yields all-zero balances. Missing profiles degrade to a placeholder display
// name rather than failing the whole report.
func (s *LedgerService) Balances(ctx context.Context, groupID, viewerID string) (*GroupBalances, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	report, err := s.computeReport(ctx, groupID, members, viewerID)
	if err != nil {
		return nil, err
	}

	statusByUser := make(map[string]models.MemberStatus, len(members))
	for _, m := range members {
		statusByUser[m.UserID] = m.Status
	}

	out := &GroupBalances{TotalSpend: report.TotalSpend}
	for _, mb := range report.Members {
		out.Members = append(out.Members, MemberBalanceView{
			UserID:       mb.UserID,
			DisplayName:  s.displayName(ctx, mb.UserID),
			Paid:         mb.Paid,
			Share:        mb.Share,
			Net:          mb.Net,
			Bilateral:    mb.Bilateral,
			Status:       mb.Status,
			MemberStatus: statusByUser[mb.UserID],
		})
	}
	return out, nil
}

// SuggestSettlements proposes payments that would zero every member's net
// balance.
func (s *LedgerService) SuggestSettlements(ctx context.Context, groupID string) ([]calculator.DebtEdge, error) {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	report, err := s.computeReport(ctx, groupID, members, "")
	if err != nil {
		return nil, err
	}
	return calculator.SuggestSettlements(report), nil
}

// computeReport batch-loads the group's rows and runs the pure aggregation:
// one query for transactions, one for splits, in-memory joins after that.
func (s *LedgerService) computeReport(ctx context.Context, groupID string, members []*models.Member, viewerID string) (*calculator.BalanceReport, error) {
	txns, err := s.store.ListTransactionsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(txns))
	for _, txn := range txns {
		ids = append(ids, txn.ID)
	}
	splits, err := s.store.ListSplitsByTransactions(ctx, ids)
	if err != nil {
		return nil, err
	}

	// A group-scoped transaction with no splits is personal history, not a
	// shared expense; it stays out of the balance math entirely.
	hasSplits := make(map[string]bool, len(txns))
	for _, sp := range splits {
		hasSplits[sp.TransactionID] = true
	}
	var paidTxns []calculator.PaidTransaction
	for _, txn := range txns {
		if hasSplits[txn.ID] {
			paidTxns = append(paidTxns, calculator.PaidTransaction{
				ID:      txn.ID,
				PayerID: txn.UserID,
				Amount:  txn.Amount,
			})
		}
	}
	calcSplits := make([]calculator.Split, 0, len(splits))
	for _, sp := range splits {
		calcSplits = append(calcSplits, calculator.Split{
			TransactionID: sp.TransactionID,
			UserID:        sp.UserID,
			Amount:        sp.Amount,
		})
	}

	var memberIDs []string
	for _, m := range members {
		if m.Status != models.MemberRejected {
			memberIDs = append(memberIDs, m.UserID)
		}
	}

	return calculator.ComputeGroupBalances(paidTxns, calcSplits, memberIDs, viewerID), nil
}

// displayName resolves a user's profile name, degrading to a stable
// placeholder when the directory has no entry.
func (s *LedgerService) displayName(ctx context.Context, userID string) string {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("profile lookup failed", "user_id", userID, "error", err)
		}
		if len(userID) >= 8 {
			return "member-" + userID[:8]
		}
		return "member-" + userID
	}
	return user.Username
}

// creationDelta returns the balance adjustment a transaction applies to its
// account when created, nil when it applies none. Transfers net to zero across
// their two accounts, so the single-account model applies no delta for them.
func creationDelta(txn *models.Transaction) *storage.AccountDelta {
	switch txn.Type {
	case models.TypeExpense:
		return &storage.AccountDelta{AccountID: txn.AccountID, Delta: txn.Amount.Neg()}
	case models.TypeIncome:
		return &storage.AccountDelta{AccountID: txn.AccountID, Delta: txn.Amount}
	default:
		return nil
	}
}
