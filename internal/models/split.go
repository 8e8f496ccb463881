package models

import "github.com/shopspring/decimal"

// SplitStatus tracks whether a member's share has been paid back.
type SplitStatus string

const (
	SplitPending SplitStatus = "pending"
	SplitSettled SplitStatus = "settled"
)

// Split is one member's share of one transaction.
//
// Invariant: for any transaction with splits, the split amounts sum to the
// transaction amount within one cent (shares may be rounded). The store
// replaces a transaction's splits wholesale (delete-then-insert) whenever the
// allocation is recomputed, so the invariant holds after every write.
type Split struct {
	// ID is the unique identifier for the split (UUID format).
	ID string

	// TransactionID is the parent transaction.
	TransactionID string

	// UserID is the member who owes this share.
	UserID string

	// Amount is the owed share. Always >= 0.
	Amount decimal.Decimal

	// Status is pending until the share is settled.
	Status SplitStatus

	// CreatedAt is the Unix timestamp when the row was created.
	CreatedAt int64
}
