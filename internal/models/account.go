package models

import "github.com/shopspring/decimal"

// Account is a user's money account with a running balance.
//
// The balance is adjusted when personal transactions are created or deleted
// and when a group deletion reverts the financial side effects of its
// transactions. It is bookkeeping state, not a derived value.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the display name (e.g., "Checking", "Cash").
	Name string

	// Balance is the current balance.
	Balance decimal.Decimal

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}
