// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/models"
)

// ErrNotFound is wrapped by store implementations when a requested row does
// not exist, so callers can distinguish missing data from store failure.
var ErrNotFound = errors.New("not found")

// AccountDelta is one balance adjustment applied as part of a larger atomic
// write (transaction create/delete, settlement, group cascade delete). A nil
// *AccountDelta means the write moves no account money.
type AccountDelta struct {
	AccountID string
	Delta     decimal.Decimal
}

// Store defines the persistence contract for the ledger.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer. The store enforces shape only; business
// invariants (split reconciliation, authorization, reversal policy) live in
// the callers.
//
// Every method that performs a multi-row write (ReplaceSplits,
// CreateTransactionWithSplits, DeleteTransaction, DeleteGroupCascade) must be
// atomic: all rows or none, including on context cancellation.
type Store interface {
	// Transactions and splits.
	// CreateTransaction persists a transaction, applying the optional account
	// delta in the same SQL transaction so a failure leaves neither half.
	CreateTransaction(ctx context.Context, txn *models.Transaction, delta *AccountDelta) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	// DeleteTransaction removes a transaction and cascade-deletes its splits,
	// applying the optional account delta atomically with the row removal.
	DeleteTransaction(ctx context.Context, id string, delta *AccountDelta) error
	ListTransactionsByGroup(ctx context.Context, groupID string) ([]*models.Transaction, error)
	// ReplaceSplits atomically deletes all existing splits of the transaction
	// and inserts the given ones.
	ReplaceSplits(ctx context.Context, transactionID string, splits []*models.Split) error
	// ListSplitsByTransactions batch-loads the splits of many transactions in
	// one query.
	ListSplitsByTransactions(ctx context.Context, transactionIDs []string) ([]*models.Split, error)
	// CreateTransactionWithSplits inserts a transaction, its splits, and the
	// optional account delta as one failure unit; no partial combination of
	// the three ever persists.
	CreateTransactionWithSplits(ctx context.Context, txn *models.Transaction, splits []*models.Split, delta *AccountDelta) error

	// Groups and members.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error)
	// DeleteGroupCascade applies the account reversals and removes splits,
	// transactions, members, and the group row, in that order, atomically.
	DeleteGroupCascade(ctx context.Context, groupID string, reversals []AccountDelta) error
	AddMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, groupID, userID string) (*models.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]*models.Member, error)
	UpdateMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus) error

	// Accounts. Balance adjustments only happen through the AccountDelta
	// parameters of the write methods above, never as standalone updates.
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id string) (*models.Account, error)

	// Users. Doubles as the profile directory for display enrichment.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
